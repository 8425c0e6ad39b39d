// Package metrics defines the metric names and tags emitted by the answer pipeline.
package metrics

import (
	"time"

	obserrors "github.com/target/mmk-interviews/internal/observability/errors"
	"github.com/target/mmk-interviews/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Pipeline stage names.
const (
	StageStage      = "stage"
	StageTranscribe = "transcribe"
	StageEvaluate   = "evaluate"
	StageRecord     = "record"
	StageReport     = "report"
	StageUpload     = "upload"
)

// StageMetric captures one finished pipeline stage.
type StageMetric struct {
	Stage    string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitStage emits the standard counter and timing for a pipeline stage.
func EmitStage(sink statsd.Sink, in StageMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"stage":  in.Stage,
		"result": in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("pipeline.stage", 1, tags)
	if in.Duration > 0 {
		sink.Timing("pipeline.stage.duration", in.Duration, CloneTags(tags))
	}
}

// EmitPollAttempts records how many polls a transcription job needed and how it ended.
func EmitPollAttempts(sink statsd.Sink, attempts int, state string) {
	if sink == nil {
		return
	}
	sink.Gauge("transcription.poll_attempts", float64(attempts), map[string]string{"state": state})
}

// EmitCache records a prompt audio cache lookup outcome for a tier ("local", "redis", "synth").
func EmitCache(sink statsd.Sink, tier string, hit bool) {
	if sink == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	sink.Count("prompt_audio.cache", 1, map[string]string{"tier": tier, "result": result})
}

// ResultFor maps an error to ResultSuccess or ResultError.
func ResultFor(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
