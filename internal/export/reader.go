package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rovshanmuradov/sol-splitter/internal/storage/models"
	"github.com/rovshanmuradov/sol-splitter/internal/types"
)

// ReadHistoryCSV parses a file produced by WriteCSV. IDs are not exported and stay empty.
func ReadHistoryCSV(r io.Reader) ([]models.TransactionRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(CSVHeaders)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &types.ParseError{Reason: "Empty file"}
	}
	if err != nil {
		return nil, &types.ParseError{Reason: err.Error()}
	}
	if strings.Join(header, ",") != strings.Join(CSVHeaders, ",") {
		return nil, &types.ParseError{Line: 1, Reason: "unexpected header"}
	}

	var records []models.TransactionRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &types.ParseError{Line: line, Reason: err.Error()}
		}

		rec, err := parseRow(row)
		if err != nil {
			return nil, &types.ParseError{Line: line, Reason: err.Error()}
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string) (models.TransactionRecord, error) {
	ts, err := time.Parse(DateLayout, row[0])
	if err != nil {
		return models.TransactionRecord{}, fmt.Errorf("invalid date %q", row[0])
	}
	status := models.Status(row[1])
	if !status.Valid() {
		return models.TransactionRecord{}, fmt.Errorf("invalid status %q", row[1])
	}
	amount, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return models.TransactionRecord{}, fmt.Errorf("invalid amount %q", row[2])
	}
	recipients, err := ParseRecipientsCell(row[4])
	if err != nil {
		return models.TransactionRecord{}, err
	}
	return models.TransactionRecord{
		Signature:  row[3],
		Timestamp:  ts,
		Amount:     amount,
		Recipients: recipients,
		Status:     status,
	}, nil
}

// ParseRecipientsCell is the inverse of FormatRecipientsCell.
func ParseRecipientsCell(cell string) ([]types.Recipient, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}

	var recipients []types.Recipient
	for _, entry := range strings.Split(cell, ";") {
		entry = strings.TrimSpace(entry)
		open := strings.LastIndex(entry, " (")
		if open < 0 || !strings.HasSuffix(entry, "%)") {
			return nil, fmt.Errorf("invalid recipient entry %q", entry)
		}
		pct, err := strconv.ParseFloat(entry[open+2:len(entry)-2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient percentage in %q", entry)
		}
		recipients = append(recipients, types.Recipient{
			Address:    strings.TrimSpace(entry[:open]),
			Percentage: pct,
		})
	}
	return recipients, nil
}
