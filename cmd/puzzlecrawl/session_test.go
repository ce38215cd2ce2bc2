package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/puzzlecrawl/internal/model"
)

func TestReadCredential(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		stdin   string
		args    []string
		want    model.Credential
		wantErr error
	}{
		{name: "argument", args: []string{"abc123"}, want: "abc123"},
		{name: "argument with cookie prefix", args: []string{"session=abc123"}, want: "abc123"},
		{name: "stdin", stdin: "abc123\n", want: "abc123"},
		{name: "stdin without newline", stdin: "abc123", want: "abc123"},
		{name: "dash reads stdin", stdin: "  session=abc123  \nignored\n", args: []string{"-"}, want: "abc123"},
		{name: "empty stdin", stdin: "", wantErr: ErrNoCredential},
		{name: "blank argument", args: []string{"  "}, wantErr: ErrNoCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := readCredential(strings.NewReader(tt.stdin), tt.args)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("readCredential() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("readCredential() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("readCredential() = %q, want %q", got.Secret(), tt.want.Secret())
			}
		})
	}
}
