package crm

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/frahmantamala/license-portal/internal"
	"github.com/frahmantamala/license-portal/internal/core/bulk"
)

// importColumns maps accepted header names to contact fields.
var importColumns = map[string]func(*ContactDTO, string){
	"first_name": func(d *ContactDTO, v string) { d.FirstName = v },
	"last_name":  func(d *ContactDTO, v string) { d.LastName = v },
	"email":      func(d *ContactDTO, v string) { d.Email = v },
	"phone":      func(d *ContactDTO, v string) { d.Phone = v },
	"title":      func(d *ContactDTO, v string) { d.Title = v },
}

var ErrImportHeader = internal.NewValidationFieldError("file", "CSV header must include first_name", internal.ErrCodeValidationFailed)

// ImportContacts creates one contact per CSV row. Rows are keyed by their
// line number in the result errors. Imported contacts are never primary.
func (s *Service) ImportContacts(ctx context.Context, r io.Reader, accountID *int64, actor *internal.Principal) (*bulk.Result, error) {
	if err := authorize(actor); err != nil {
		return nil, err
	}
	if err := s.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}

	lines, rows, err := parseContacts(r, accountID)
	if err != nil {
		return nil, err
	}

	res := bulk.Run(ctx, lines, s.concurrency, func(ctx context.Context, line int) error {
		_, err := s.createContact(ctx, rows[line], actor)
		return err
	})
	s.logger.Info("contact import finished", "success", res.Success, "failed", res.Failed, "actor_id", actor.ID)
	return &res, nil
}

// parseContacts returns the data line numbers in file order alongside the
// rows keyed by line.
func parseContacts(r io.Reader, accountID *int64) ([]int, map[int]ContactDTO, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrImportHeader
	}
	if err != nil {
		return nil, nil, internal.NewValidationFieldError("file", fmt.Sprintf("unreadable CSV: %v", err), internal.ErrCodeValidationFailed)
	}

	setters := make([]func(*ContactDTO, string), len(header))
	hasFirstName := false
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		setters[i] = importColumns[name]
		if name == "first_name" {
			hasFirstName = true
		}
	}
	if !hasFirstName {
		return nil, nil, ErrImportHeader
	}

	var lines []int
	rows := map[int]ContactDTO{}
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, nil, internal.NewValidationFieldError("file", fmt.Sprintf("line %d: %v", line, err), internal.ErrCodeValidationFailed)
		}
		dto := ContactDTO{AccountID: accountID}
		for i, v := range record {
			if i < len(setters) && setters[i] != nil {
				setters[i](&dto, strings.TrimSpace(v))
			}
		}
		lines = append(lines, line)
		rows[line] = dto
	}
	return lines, rows, nil
}
