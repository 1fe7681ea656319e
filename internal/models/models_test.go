package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestAnalysisStatus(t *testing.T) {
	tc := []struct {
		in        AnalysisStatus
		normal    AnalysisStatus
		wantLabel string
	}{
		{in: StatusCompleted, normal: StatusCompleted, wantLabel: "completed"},
		{in: StatusError, normal: StatusError, wantLabel: "error"},
		{in: StatusMock, normal: StatusMock, wantLabel: "mock"},
		{in: StatusNotAnalyzed, normal: StatusNotAnalyzed, wantLabel: "not analyzed"},
		{in: "in_progress", normal: StatusNotAnalyzed, wantLabel: "in progress"},
		{in: "", normal: StatusNotAnalyzed, wantLabel: "not analyzed"},
	}

	for _, tt := range tc {
		t.Run(string(tt.in), func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.normal {
				t.Errorf("Normalize() = %v, want %v", got, tt.normal)
			}
			if got := tt.in.Label(); got != tt.wantLabel {
				t.Errorf("Label() = %q, want %q", got, tt.wantLabel)
			}
		})
	}
}

func TestDashboard(t *testing.T) {
	t.Run("Decode", func(t *testing.T) {
		body := `{"total_prs":2,"analyzed":1,"pull_requests":[{"pr_id":7,"pr_number":12,"title":"Fix","author":"amy","repo":"o/r","analysis_status":"completed","analyzed_at":null}]}`
		var d Dashboard
		if err := json.Unmarshal([]byte(body), &d); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if len(d.PullRequests) != 1 || d.PullRequests[0].ID() != "7" {
			t.Fatalf("unexpected pull requests: %+v", d.PullRequests)
		}
		if d.PendingCount() != 1 {
			t.Errorf("expected derived pending 1, got %d", d.PendingCount())
		}
	})

	t.Run("PendingCount Prefers Backend Value", func(t *testing.T) {
		d := Dashboard{TotalPRs: 5, Analyzed: 1, Pending: 2}
		if d.PendingCount() != 2 {
			t.Errorf("expected 2, got %d", d.PendingCount())
		}
	})
}

func TestPRAnalysis(t *testing.T) {
	t.Run("Pending Response", func(t *testing.T) {
		var a PRAnalysis
		if err := json.Unmarshal([]byte(`{"status":"pending","message":"No analysis found."}`), &a); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if !a.IsPending() {
			t.Error("expected pending analysis")
		}
	})

	t.Run("Created", func(t *testing.T) {
		a := Analysis{CreatedAt: "2024-05-01T10:11:12.123456"}
		if a.Created().IsZero() {
			t.Error("expected backend isoformat timestamp to parse")
		}
		if !(Analysis{CreatedAt: "yesterday"}).Created().IsZero() {
			t.Error("expected malformed timestamp to yield zero time")
		}
	})
}

func TestPushMessage(t *testing.T) {
	t.Run("Decode", func(t *testing.T) {
		msg, err := DecodePushMessage([]byte(`{"type":"pr_created","data":{}}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if msg.Type != MessagePRCreated {
			t.Errorf("expected pr_created, got %s", msg.Type)
		}
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		if _, err := DecodePushMessage([]byte(`not json`)); !errors.Is(err, ErrMalformedMessage) {
			t.Errorf("expected ErrMalformedMessage, got %v", err)
		}
	})

	t.Run("Missing Type", func(t *testing.T) {
		if _, err := DecodePushMessage([]byte(`{"data":{"pr_id":1}}`)); !errors.Is(err, ErrMissingType) {
			t.Errorf("expected ErrMissingType, got %v", err)
		}
	})

	t.Run("PRID", func(t *testing.T) {
		tc := []struct {
			name    string
			data    string
			want    string
			wantErr error
		}{
			{name: "integer", data: `{"pr_id":42}`, want: "42"},
			{name: "string", data: `{"pr_id":"42"}`, want: "42"},
			{name: "integral float", data: `{"pr_id":42.0}`, want: "42"},
			{name: "exponent", data: `{"pr_id":4.2e1}`, want: "42"},
			{name: "fraction", data: `{"pr_id":42.5}`, want: "42.5"},
			{name: "missing", data: `{}`, wantErr: ErrMissingPRID},
			{name: "null", data: `{"pr_id":null}`, wantErr: ErrMissingPRID},
			{name: "no data", data: ``, wantErr: ErrMissingPRID},
			{name: "object", data: `{"pr_id":{}}`, wantErr: ErrMalformedMessage},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				msg := PushMessage{Type: MessageAnalysisComplete, Data: json.RawMessage(tt.data)}
				got, err := msg.PRID()
				if tt.wantErr != nil {
					if !errors.Is(err, tt.wantErr) {
						t.Errorf("expected %v, got %v", tt.wantErr, err)
					}
					return
				}
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if got != tt.want {
					t.Errorf("PRID() = %q, want %q", got, tt.want)
				}
			})
		}
	})
}

func TestSession(t *testing.T) {
	s := NewSession(1, "dev@example.com", "tok", "")
	if s.TokenType() != "bearer" {
		t.Errorf("expected default token type bearer, got %s", s.TokenType())
	}
	if err := s.Validate(); err != nil {
		t.Errorf("expected valid session, got %v", err)
	}
	if err := NewSession(1, "dev@example.com", " ", "bearer").Validate(); err == nil {
		t.Error("expected validation error for blank token")
	}
}
