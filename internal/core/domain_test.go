package core

import (
	"strings"
	"testing"
	"time"
)

func TestAccountValidate(t *testing.T) {
	valid := Account{Username: "jinyu", Role: RoleDependent, WeeklyRate: Money{Cents: 100}}

	tests := []struct {
		name    string
		mutate  func(a Account) Account
		wantErr bool
	}{
		{name: "valid dependent", mutate: func(a Account) Account { return a }},
		{name: "valid guardian", mutate: func(a Account) Account { a.Role = RoleGuardian; return a }},
		{name: "empty username", mutate: func(a Account) Account { a.Username = "  "; return a }, wantErr: true},
		{name: "unknown role", mutate: func(a Account) Account { a.Role = "admin"; return a }, wantErr: true},
		{name: "negative rate", mutate: func(a Account) Account { a.WeeklyRate = Money{Cents: -1}; return a }, wantErr: true},
		{name: "zero rate allowed", mutate: func(a Account) Account { a.WeeklyRate = Money{}; return a }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(valid).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecordValidate(t *testing.T) {
	valid := Record{
		Date:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Amount: Money{Cents: -350},
		Note:   "sweets",
	}

	tests := []struct {
		name    string
		mutate  func(r Record) Record
		wantErr bool
	}{
		{name: "valid", mutate: func(r Record) Record { return r }},
		{name: "zero date", mutate: func(r Record) Record { r.Date = time.Time{}; return r }, wantErr: true},
		{name: "blank note", mutate: func(r Record) Record { r.Note = " "; return r }, wantErr: true},
		{name: "note too long", mutate: func(r Record) Record { r.Note = strings.Repeat("x", 201); return r }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(valid).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
