package metrics

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

// captureOutput redirects EMF output for the duration of a test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	initOnce.Do(func() {})
	functionName = ""
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	t.Cleanup(func() { SetOutput(prev) })
	return &buf
}

func TestNew_AutoDimension(t *testing.T) {
	initOnce.Do(func() {})
	functionName = "landing-lambda"
	t.Cleanup(func() { functionName = "" })

	r := New(Namespace)
	if r.namespace != Namespace {
		t.Errorf("expected namespace %s, got %s", Namespace, r.namespace)
	}
	if r.dimensions["FunctionName"] != "landing-lambda" {
		t.Errorf("expected FunctionName dimension landing-lambda, got %s", r.dimensions["FunctionName"])
	}
}

func TestRecorder_FlushOutput(t *testing.T) {
	buf := captureOutput(t)

	New(Namespace).
		Dimension("Endpoint", "/api/enhance").
		Metric("RequestLatencyMs", 1234.5, UnitMilliseconds).
		Count("RequestCount").
		Property("requestId", "abc-123").
		Flush()

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse EMF output as JSON: %v\nOutput: %s", err, buf.String())
	}

	awsMap, ok := doc["_aws"].(map[string]interface{})
	if !ok {
		t.Fatal("missing _aws directive in EMF output")
	}
	if _, ok := awsMap["Timestamp"]; !ok {
		t.Error("missing Timestamp in _aws directive")
	}
	cwArr, ok := awsMap["CloudWatchMetrics"].([]interface{})
	if !ok || len(cwArr) == 0 {
		t.Fatal("CloudWatchMetrics should be a non-empty array")
	}
	cw := cwArr[0].(map[string]interface{})
	if cw["Namespace"] != Namespace {
		t.Errorf("expected namespace %s, got %v", Namespace, cw["Namespace"])
	}

	if doc["Endpoint"] != "/api/enhance" {
		t.Errorf("expected Endpoint=/api/enhance, got %v", doc["Endpoint"])
	}
	if doc["RequestLatencyMs"] != 1234.5 {
		t.Errorf("expected RequestLatencyMs=1234.5, got %v", doc["RequestLatencyMs"])
	}
	if doc["RequestCount"] != float64(1) {
		t.Errorf("expected RequestCount=1, got %v", doc["RequestCount"])
	}
	if doc["requestId"] != "abc-123" {
		t.Errorf("expected requestId=abc-123, got %v", doc["requestId"])
	}
	if bytes.Count(buf.Bytes(), []byte("\n")) != 1 {
		t.Errorf("EMF document must be a single line, got %q", buf.String())
	}
}

func TestRecorder_FlushEmpty(t *testing.T) {
	buf := captureOutput(t)

	New("Test").Flush()

	if buf.Len() != 0 {
		t.Errorf("expected no output for empty recorder, got: %s", buf.String())
	}
}

func TestRecorder_Duration(t *testing.T) {
	functionName = ""
	rec := New("Test").Duration("EnhanceLatencyMs", 1500*time.Millisecond)

	if rec.values["EnhanceLatencyMs"] != 1500 {
		t.Errorf("expected 1500, got %v", rec.values["EnhanceLatencyMs"])
	}
	if rec.metrics["EnhanceLatencyMs"].Unit != UnitMilliseconds {
		t.Errorf("expected unit Milliseconds, got %v", rec.metrics["EnhanceLatencyMs"].Unit)
	}
}

func TestRecorder_Chaining(t *testing.T) {
	functionName = ""
	rec := New("Test").
		Dimension("Outcome", "success").
		Metric("Bytes", 100, UnitBytes).
		Count("Calls").
		Property("id", "xyz")

	if rec.dimensions["Outcome"] != "success" {
		t.Error("chaining Dimension failed")
	}
	if rec.values["Bytes"] != 100 {
		t.Error("chaining Metric failed")
	}
	if rec.values["Calls"] != 1 {
		t.Error("chaining Count failed")
	}
	if rec.properties["id"] != "xyz" {
		t.Error("chaining Property failed")
	}
}
