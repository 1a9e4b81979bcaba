package identity

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farm-alerts/internal/model"
)

func TestMinuteBucketer(t *testing.T) {
	b := MinuteBucketer{}
	noon := time.Date(2025, 6, 17, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, noon.Unix()/60, b.Bucket(noon))
	assert.Equal(t, b.Bucket(noon), b.Bucket(noon.Add(59*time.Second)))
	assert.Equal(t, b.Bucket(noon)+1, b.Bucket(noon.Add(60*time.Second)))
	assert.Equal(t, int64(-1), b.Bucket(time.Unix(-1, 0)))

	wide := MinuteBucketer{Width: 5 * time.Minute}
	assert.Equal(t, wide.Bucket(noon), wide.Bucket(noon.Add(4*time.Minute)))
}

func TestStrategy_Sensor_StableWithinMinute(t *testing.T) {
	s := New(nil)
	noon := time.Date(2025, 6, 17, 12, 0, 0, 0, time.UTC)

	id := s.Sensor(model.MetricTemperature, noon)
	assert.Equal(t, "sensor:temperature:"+strconv.FormatInt(noon.Unix()/60, 10), id)
	assert.Equal(t, id, s.Sensor(model.MetricTemperature, noon.Add(30*time.Second)))
	assert.NotEqual(t, id, s.Sensor(model.MetricTemperature, noon.Add(time.Minute)))
}

type fixedBucketer int64

func (f fixedBucketer) Bucket(time.Time) int64 { return int64(f) }

func TestStrategy_Sensor_CustomBucketer(t *testing.T) {
	s := New(fixedBucketer(7))
	assert.Equal(t, "sensor:humidity:7", s.Sensor(model.MetricHumidity, time.Now()))
}

func TestStrategy_Manual(t *testing.T) {
	s := New(nil)

	assert.Equal(t, "manual:2", s.Manual(&model.ManualRecord{ID: "2"}))

	rec := &model.ManualRecord{Disease: "Healthy", Confidence: model.Float(92)}
	id := s.Manual(rec)
	require.True(t, strings.HasPrefix(id, "manual:h-"))
	assert.Len(t, strings.TrimPrefix(id, "manual:h-"), hashPrefixLen)

	same := &model.ManualRecord{Disease: "Healthy", Confidence: model.Float(92)}
	assert.Equal(t, id, s.Manual(same), "hash is deterministic")

	other := &model.ManualRecord{Disease: "Healthy", Confidence: model.Float(91)}
	assert.NotEqual(t, id, s.Manual(other))
}

func TestStrategy_Live(t *testing.T) {
	s := New(nil)

	assert.Equal(t, "live:h1", s.Live(&model.LiveRecord{HistoryID: "h1", ID: "5"}))
	assert.Equal(t, "live:5", s.Live(&model.LiveRecord{ID: "5"}))
	assert.True(t, strings.HasPrefix(s.Live(&model.LiveRecord{Camera: "1"}), "live:h-"))
}

func TestCategoryOf(t *testing.T) {
	c, ok := CategoryOf("live:abc")
	assert.True(t, ok)
	assert.Equal(t, model.CategoryLive, c)

	_, ok = CategoryOf("weather:1")
	assert.False(t, ok)
	_, ok = CategoryOf("manual:")
	assert.False(t, ok)
	_, ok = CategoryOf("nocolon")
	assert.False(t, ok)
}
