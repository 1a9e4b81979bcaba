//go:build ignore
// +build ignore

// This script reads and displays the contents of an alert report for verification.
// Run with: go run scripts/read_excel.go [path]
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"
)

func main() {
	path := "sample_alert_report.xlsx"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer f.Close()

	fmt.Println("📊 Sheets:", f.GetSheetList())

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			fmt.Printf("Error reading %s: %v\n", sheet, err)
			continue
		}

		fmt.Println()
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  %s (%d rows)\n", sheet, len(rows))
		fmt.Println("═══════════════════════════════════════")
		for i, row := range rows {
			if len(row) == 0 {
				continue
			}
			fmt.Printf("%3d  %s\n", i+1, strings.Join(row, " | "))
		}
	}
}
