package csvparser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"
)

const defaultMaxRows = 1000

// Recipient is one customer row from an uploaded bulk-messaging CSV. Email
// holds the validated bare address; every other column lands in Fields under
// its header name, ready to merge into a template context.
type Recipient struct {
	Email  string
	Fields map[string]any
}

// ParseRecipients reads recipient rows from r. The header row must contain
// an Email column (case-insensitive). Addresses may use the bare or the
// "Name <addr>" form; either way only the bare address is kept, so the send
// path stays in control of display names. Rows with a missing or unparseable
// address are skipped rather than failing the whole upload. maxRows caps the
// accepted rows, defaulting to 1000 when zero or negative.
func ParseRecipients(r io.Reader, maxRows int) ([]Recipient, error) {
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("recipient csv header: %w", err)
	}
	columns, emailIdx, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var recipients []Recipient
	for len(recipients) < maxRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("recipient csv row: %w", err)
		}

		rec, ok := buildRecipient(columns, emailIdx, record)
		if !ok {
			continue
		}
		recipients = append(recipients, rec)
	}

	if len(recipients) == 0 {
		return nil, errors.New("recipient csv has no usable rows")
	}
	return recipients, nil
}

func indexColumns(header []string) ([]string, int, error) {
	if len(header) == 0 {
		return nil, 0, errors.New("recipient csv header is empty")
	}

	columns := make([]string, len(header))
	emailIdx := -1
	for i, name := range header {
		name = strings.TrimSpace(name)
		columns[i] = name
		if strings.EqualFold(name, "email") {
			emailIdx = i
		}
	}
	if emailIdx == -1 {
		return nil, 0, errors.New("recipient csv needs an Email column")
	}
	return columns, emailIdx, nil
}

func buildRecipient(columns []string, emailIdx int, record []string) (Recipient, bool) {
	if len(record) != len(columns) {
		return Recipient{}, false
	}

	raw := strings.TrimSpace(record[emailIdx])
	if raw == "" {
		return Recipient{}, false
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return Recipient{}, false
	}

	fields := make(map[string]any, len(columns)-1)
	for i, value := range record {
		if i == emailIdx || columns[i] == "" {
			continue
		}
		fields[columns[i]] = strings.TrimSpace(value)
	}

	return Recipient{Email: addr.Address, Fields: fields}, true
}
