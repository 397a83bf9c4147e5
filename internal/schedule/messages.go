package schedule

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadMessages loads tweet texts from a file. A .txt file contributes one
// message per line; a .csv file contributes the first column of each row.
// Blank entries are skipped.
func ReadMessages(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening message file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return readLines(f)
	case ".csv":
		return readFirstColumn(f)
	default:
		return nil, fmt.Errorf("unsupported message file type %q (want .txt or .csv)", filepath.Ext(path))
	}
}

func readLines(f *os.File) ([]string, error) {
	var msgs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			msgs = append(msgs, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading message file: %w", err)
	}
	return msgs, nil
}

func readFirstColumn(f *os.File) ([]string, error) {
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv message file: %w", err)
	}

	var msgs []string
	for _, rec := range records {
		if len(rec) == 0 {
			continue
		}
		text := strings.TrimSpace(rec[0])
		if text != "" {
			msgs = append(msgs, text)
		}
	}
	return msgs, nil
}
