package outbox

// Event is the domain event envelope written to the outbox table in the same
// transaction as the state change. The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Topics emitted by the booking service.
const (
	EventAppointmentBooked    = "booking.appointment.booked.v1"
	EventAppointmentCancelled = "booking.appointment.cancelled.v1"
)

// AppointmentEvent is the payload for booked and cancelled events. It carries
// enough context for the notification service to address the owner without a
// lookup.
type AppointmentEvent struct {
	AppointmentID int64   `json:"appointment_id"`
	OwnerTgID     int64   `json:"owner_tg_id"`
	Schema        string  `json:"schema"`
	Name          string  `json:"name"`
	Contact       string  `json:"contact"`
	Time          string  `json:"time"`
	Day           string  `json:"day"`
	Prepayment    float64 `json:"prepayment"`
}
