package services

import (
	"time"

	"whatsapp-notifier/models"

	"go.uber.org/zap"
)

// Outcome is what happened to one record in a batch.
type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeInvalid
	OutcomeGatewayError
	OutcomeStoreError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeGatewayError:
		return "gateway_error"
	case OutcomeStoreError:
		return "store_error"
	default:
		return "unknown"
	}
}

// Result is the outcome for a single record. Err is the failure that decided the
// outcome; StoreErr is set when the follow-up status write also failed.
type Result struct {
	ID       int64
	Kind     models.Kind
	Outcome  Outcome
	Err      error
	StoreErr error
}

type BatchReport struct {
	Kind       models.Kind
	Selected   int
	Results    []Result
	SelectErr  error
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r *BatchReport) Add(result Result) {
	r.Results = append(r.Results, result)
}

func (r BatchReport) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

func (r BatchReport) Sent() int {
	return r.Count(OutcomeSent)
}

func (r BatchReport) Failed() int {
	return len(r.Results) - r.Sent()
}

// Log writes the batch summary.
func (r BatchReport) Log(log *zap.Logger) {
	fields := []zap.Field{
		zap.String("kind", r.Kind.String()),
		zap.Int("selected", r.Selected),
		zap.Int("sent", r.Sent()),
		zap.Int("invalid", r.Count(OutcomeInvalid)),
		zap.Int("gateway_errors", r.Count(OutcomeGatewayError)),
		zap.Int("store_errors", r.Count(OutcomeStoreError)),
		zap.Duration("took", r.FinishedAt.Sub(r.StartedAt)),
	}
	if r.Failed() > 0 {
		log.Warn("Batch finished with failures", fields...)
		return
	}
	log.Info("Batch finished", fields...)
}

// CycleReport covers one scheduler cycle; Err is set when the cycle could not run.
type CycleReport struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Batches    []BatchReport
	Err        error
}

type BatchSummary struct {
	Kind          string `json:"kind"`
	Selected      int    `json:"selected"`
	Sent          int    `json:"sent"`
	Invalid       int    `json:"invalid"`
	GatewayErrors int    `json:"gateway_errors"`
	StoreErrors   int    `json:"store_errors"`
	Error         string `json:"error,omitempty"`
}

type CycleSummary struct {
	ID         string         `json:"id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Batches    []BatchSummary `json:"batches"`
	Error      string         `json:"error,omitempty"`
}

// Summary flattens the report for the status endpoint.
func (r CycleReport) Summary() CycleSummary {
	summary := CycleSummary{
		ID:         r.ID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Batches:    []BatchSummary{},
	}
	if r.Err != nil {
		summary.Error = r.Err.Error()
	}
	for _, b := range r.Batches {
		bs := BatchSummary{
			Kind:          b.Kind.String(),
			Selected:      b.Selected,
			Sent:          b.Sent(),
			Invalid:       b.Count(OutcomeInvalid),
			GatewayErrors: b.Count(OutcomeGatewayError),
			StoreErrors:   b.Count(OutcomeStoreError),
		}
		if b.SelectErr != nil {
			bs.Error = b.SelectErr.Error()
		}
		summary.Batches = append(summary.Batches, bs)
	}
	return summary
}
