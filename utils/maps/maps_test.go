package maps

import (
	"reflect"
	"testing"
)

type testStatusInfo struct {
	Status   string   `json:"status"`
	Attempts int      `json:"attempts"`
	Errors   []string `json:"error_messages"`
}

type testTaskDoc struct {
	BaseDocument
	DatasetID string         `json:"dataset_id"`
	Info      testStatusInfo `json:"info"`
}

func sourceMap() map[string]interface{} {
	return map[string]interface{}{
		"dataset_id": "ds-42",
		"info": map[string]interface{}{
			"status":   "submitted",
			"attempts": float64(1),
			// field owned by another service, not modeled above
			"submitted_by": "sequencer",
		},
		"foreign_field": "untouched",
	}
}

func TestFillFromMap(t *testing.T) {
	raw := sourceMap()
	var doc testTaskDoc
	if err := FillFromMap(&doc, &raw); err != nil {
		t.Fatalf("FillFromMap returned error: %v", err)
	}
	if doc.DatasetID != "ds-42" {
		t.Errorf("expected dataset_id ds-42, got %q", doc.DatasetID)
	}
	if doc.Info.Status != "submitted" || doc.Info.Attempts != 1 {
		t.Errorf("unexpected info contents: %+v", doc.Info)
	}
}

func TestApplyUpdatesPreservesForeignFields(t *testing.T) {
	raw := sourceMap()
	var doc testTaskDoc
	if err := FillFromMap(&doc, &raw); err != nil {
		t.Fatalf("FillFromMap returned error: %v", err)
	}
	err := ApplyUpdates(&doc, func(d *testTaskDoc) {
		d.Info.Status = "started"
		d.Info.Attempts++
		d.Info.Errors = append(d.Info.Errors, "transient failure")
	})
	if err != nil {
		t.Fatalf("ApplyUpdates returned error: %v", err)
	}

	updated := *doc.getRaw()
	if updated["foreign_field"] != "untouched" {
		t.Errorf("foreign top-level field was dropped: %v", updated)
	}
	info, ok := updated["info"].(map[string]interface{})
	if !ok {
		t.Fatalf("info is not a map: %v", updated["info"])
	}
	if info["submitted_by"] != "sequencer" {
		t.Errorf("foreign nested field was dropped: %v", info)
	}
	if info["status"] != "started" {
		t.Errorf("expected status started, got %v", info["status"])
	}
	if info["attempts"] != float64(2) {
		t.Errorf("expected attempts 2, got %v", info["attempts"])
	}
	if !reflect.DeepEqual(info["error_messages"], []interface{}{"transient failure"}) {
		t.Errorf("unexpected error_messages: %v", info["error_messages"])
	}
}

func TestApplyUpdatesNilFunc(t *testing.T) {
	raw := sourceMap()
	var doc testTaskDoc
	if err := FillFromMap(&doc, &raw); err != nil {
		t.Fatalf("FillFromMap returned error: %v", err)
	}
	if err := ApplyUpdates(&doc, nil); err != nil {
		t.Errorf("expected nil error for nil updateFunc, got %v", err)
	}
}

func TestCopyValues(t *testing.T) {
	raw := sourceMap()
	var doc testTaskDoc
	if err := FillFromMap(&doc, &raw); err != nil {
		t.Fatalf("FillFromMap returned error: %v", err)
	}
	var cached testTaskDoc
	if err := CopyValues(&doc, &cached); err != nil {
		t.Fatalf("CopyValues returned error: %v", err)
	}
	if cached.DatasetID != doc.DatasetID {
		t.Errorf("expected dataset_id %q, got %q", doc.DatasetID, cached.DatasetID)
	}
	cachedRaw := *cached.getRaw()
	if _, ok := cachedRaw["foreign_field"]; ok {
		t.Errorf("cached copy should only hold modeled fields, got %v", cachedRaw)
	}
}
