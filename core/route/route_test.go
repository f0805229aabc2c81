package route

import (
	"errors"
	"net/http"
	"testing"
)

func TestOperationID(t *testing.T) {
	tests := []struct {
		route Route
		want  string
	}{
		{Route{Method: "GET", Path: "/items/{item_id}"}, "get_items_item_id"},
		{Route{Method: "POST", Path: "/items/"}, "post_items"},
		{Route{Method: "GET", Path: "/"}, "get"},
		{Route{Method: "PUT", Path: "/Users/{ID}/Avatar"}, "put_users_id_avatar"},
		{Route{Method: "GET", Path: "/items/", Name: "list_items"}, "list_items"},
	}

	for _, tt := range tests {
		if got := tt.route.OperationID(); got != tt.want {
			t.Errorf("%s %s: OperationID = %q, want %q", tt.route.Method, tt.route.Path, got, tt.want)
		}
	}
}

func TestSuccessStatus(t *testing.T) {
	if got := (Route{}).SuccessStatus(); got != http.StatusOK {
		t.Errorf("default SuccessStatus = %d, want 200", got)
	}
	if got := (Route{Status: http.StatusCreated}).SuccessStatus(); got != http.StatusCreated {
		t.Errorf("SuccessStatus = %d, want 201", got)
	}
}

func TestResults(t *testing.T) {
	cause := errors.New("disk on fire")
	sig := DomainSignal{Name: "unicorn", Reason: "yolo", Data: map[string]any{"name": "yolo"}}

	tests := []struct {
		name   string
		result Result
		kind   Kind
		status int
	}{
		{"ok", OK("v"), KindValue, 0},
		{"created", Created("v"), KindValue, http.StatusCreated},
		{"with status", WithStatus(http.StatusAccepted, "v"), KindValue, http.StatusAccepted},
		{"not found", NotFound("Item", "qux"), KindNotFound, 0},
		{"signal", Signal(sig), KindSignal, 0},
		{"failure", Fail(cause), KindFailure, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Kind() != tt.kind {
				t.Errorf("Kind = %s, want %s", tt.result.Kind(), tt.kind)
			}
			if tt.result.Status() != tt.status {
				t.Errorf("Status = %d, want %d", tt.result.Status(), tt.status)
			}
		})
	}

	if got := OK("v").Value(); got != "v" {
		t.Errorf("Value = %v", got)
	}
	if m := NotFound("Item", "qux").Missing(); m.Resource != "Item" || m.Key != "qux" {
		t.Errorf("Missing = %+v", m)
	}
	if got := Signal(sig).DomainSignal(); got.Name != "unicorn" || got.Data["name"] != "yolo" {
		t.Errorf("DomainSignal = %+v", got)
	}
	if !errors.Is(Fail(cause).Err(), cause) {
		t.Error("Err should return the cause")
	}
}

func TestKindString(t *testing.T) {
	tests := map[Kind]string{
		KindValue:    "value",
		KindNotFound: "not_found",
		KindSignal:   "signal",
		KindFailure:  "failure",
		Kind(9):      "kind(9)",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}

func TestDomainSignalError(t *testing.T) {
	if got := (DomainSignal{Name: "unicorn"}).Error(); got != "domain signal unicorn" {
		t.Errorf("Error = %q", got)
	}
	if got := (DomainSignal{Name: "unicorn", Reason: "yolo"}).Error(); got != "domain signal unicorn: yolo" {
		t.Errorf("Error = %q", got)
	}
}
