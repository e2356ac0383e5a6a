package audit

import (
	"encoding/json"
	"log"
	"time"
)

// Event is one structured audit record. Every balance-affecting operation
// emits exactly one event, success or failure.
type Event struct {
	Timestamp   time.Time `json:"timestamp"`
	EventType   string    `json:"event_type"`
	ReferenceID string    `json:"reference_id"`
	PassID      int       `json:"pass_id"`
	UserID      int       `json:"user_id"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	Details     any       `json:"details,omitempty"`
}

type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

// LogFare records a completed fare deduction.
func (a *Logger) LogFare(referenceID string, passID, userID int, fare, remaining int64) {
	event := Event{
		Timestamp:   time.Now(),
		EventType:   "FARE_DEDUCTION",
		ReferenceID: referenceID,
		PassID:      passID,
		UserID:      userID,
		Amount:      fare,
		Status:      "SUCCESS",
		Details:     map[string]int64{"remaining_balance": remaining},
	}
	a.log(event)
}

// LogCredit records a completed purchase or top-up.
func (a *Logger) LogCredit(referenceID, kind string, passID, userID int, amount int64) {
	event := Event{
		Timestamp:   time.Now(),
		EventType:   kind,
		ReferenceID: referenceID,
		PassID:      passID,
		UserID:      userID,
		Amount:      amount,
		Status:      "SUCCESS",
	}
	a.log(event)
}

// LogRejection records a validation that was refused before any write.
func (a *Logger) LogRejection(passID int, reason string) {
	event := Event{
		Timestamp: time.Now(),
		EventType: "VALIDATION_REJECTED",
		PassID:    passID,
		Status:    "REJECTED",
		Details:   map[string]string{"reason": reason},
	}
	a.log(event)
}

// LogError records an operation that failed against storage.
func (a *Logger) LogError(operation string, passID int, err error) {
	event := Event{
		Timestamp: time.Now(),
		EventType: operation,
		PassID:    passID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	}
	a.log(event)
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
