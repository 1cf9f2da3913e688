package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/ahrav/go-groundqa/internal/domain"
)

// maxRecordBytes bounds a single input line.
const maxRecordBytes = 1 << 20

// Record is one input line with its 1-based batch index.
type Record struct {
	Index    int
	Question string
}

// Blank reports whether the record carries no question.
func (r Record) Blank() bool { return r.Question == "" }

// ReadRecords parses newline-delimited records from r, numbering them from
// startIndex. Blank lines still consume an index.
func ReadRecords(r io.Reader, startIndex int) ([]Record, error) {
	if startIndex < 1 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidIndex, startIndex)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)

	var records []Record
	for idx := startIndex; scanner.Scan(); idx++ {
		records = append(records, Record{Index: idx, Question: domain.ParseQuestionLine(scanner.Text())})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return records, nil
}

// ReadRecordsFile opens path and parses it with ReadRecords.
func ReadRecordsFile(path string, startIndex int) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return ReadRecords(f, startIndex)
}
