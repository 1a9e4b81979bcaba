// Package identity derives the stable alert ids shared by every alert producer.
//
// Ids are a pure function of data already present in the snapshot or history
// record. The sensor minute bucket is the only time-derived part and it comes
// from the evaluation clock handed in by the caller, through a Bucketer.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"farm-alerts/internal/model"
)

const hashPrefixLen = 12

// Bucketer maps an evaluation time to a coarse bucket number.
type Bucketer interface {
	Bucket(now time.Time) int64
}

// MinuteBucketer buckets by fixed-width wall-clock intervals since the Unix
// epoch. A zero Width means one minute.
type MinuteBucketer struct {
	Width time.Duration
}

// Bucket returns floor(now / Width).
func (b MinuteBucketer) Bucket(now time.Time) int64 {
	w := int64(b.Width)
	if w <= 0 {
		w = int64(time.Minute)
	}
	n := now.UnixNano()
	q := n / w
	if n%w < 0 {
		q--
	}
	return q
}

// Strategy builds alert ids.
type Strategy struct {
	bucketer Bucketer
}

// New creates a Strategy. A nil bucketer defaults to one-minute buckets.
func New(b Bucketer) *Strategy {
	if b == nil {
		b = MinuteBucketer{Width: time.Minute}
	}
	return &Strategy{bucketer: b}
}

// Sensor returns "sensor:<metric>:<bucket>".
func (s *Strategy) Sensor(metric string, now time.Time) string {
	return string(model.CategorySensor) + ":" + metric + ":" + strconv.FormatInt(s.bucketer.Bucket(now), 10)
}

// Manual returns "manual:<id>", or a content hash when the record has no id.
func (s *Strategy) Manual(rec *model.ManualRecord) string {
	if key := rec.Key(); key != "" {
		return string(model.CategoryManual) + ":" + key
	}
	return string(model.CategoryManual) + ":h-" + contentHash(rec)
}

// Live returns "live:<historyId|id>", or a content hash when the record has neither.
func (s *Strategy) Live(rec *model.LiveRecord) string {
	if key := rec.Key(); key != "" {
		return string(model.CategoryLive) + ":" + key
	}
	return string(model.CategoryLive) + ":h-" + contentHash(rec)
}

// CategoryOf returns the category encoded in an alert id.
func CategoryOf(id string) (model.Category, bool) {
	prefix, rest, ok := strings.Cut(id, ":")
	if !ok || rest == "" {
		return "", false
	}
	c := model.Category(prefix)
	return c, c.IsValid()
}

// contentHash hashes the canonical JSON of v. encoding/json writes struct
// fields in declaration order, so equal records hash equally.
func contentHash(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		b = []byte(err.Error())
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:hashPrefixLen]
}
