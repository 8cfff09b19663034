package sink

import (
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/subwaysign/commute/model"
)

const DefaultSubject = "commute.snapshot"

// NATS publishes each snapshot as JSON, for remote displays (LED
// signs, dashboards) subscribed to the subject.
type NATS struct {
	nc      *nats.Conn
	subject string
}

func NewNATS(url, subject string) (*NATS, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	nc, err := nats.Connect(url,
		nats.Name("commute"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("nats reconnected")
		}),
	)
	if err != nil {
		return nil, err
	}
	return &NATS{nc: nc, subject: subject}, nil
}

func (n *NATS) Close() {
	if n.nc != nil {
		n.nc.Drain()
		n.nc.Close()
	}
}

// snapshotMessage is the wire shape published per cycle.
type snapshotMessage struct {
	Timestamp time.Time       `json:"timestamp"`
	Best      string          `json:"best,omitempty"`
	Results   []resultMessage `json:"results"`
}

type resultMessage struct {
	Route     string     `json:"route"`
	Status    string     `json:"status"`
	Departure *time.Time `json:"departure,omitempty"`
	ETA       *time.Time `json:"eta,omitempty"`

	// Pointers so that a leave-in of 0 ("leave immediately") still
	// serializes, while non-OK routes omit the fields entirely.
	TotalMin *int `json:"totalMin,omitempty"`
	LeaveIn  *int `json:"leaveInMin,omitempty"`

	Error string      `json:"error,omitempty"`
	Color model.Color `json:"color"`
}

func newSnapshotMessage(snap model.RankedSnapshot) snapshotMessage {
	msg := snapshotMessage{Timestamp: snap.Timestamp}
	if snap.Best != nil {
		msg.Best = snap.Best.Route.Name
	}
	for _, res := range snap.Results {
		rm := resultMessage{
			Route:  res.Route.Name,
			Status: res.Status.String(),
			Error:  res.Err,
			Color:  res.Route.DisplayColor(),
		}
		if res.Eligible() {
			dep, eta := res.Departure, res.ETA
			total, leaveIn := res.TotalMin, res.LeaveInMin
			rm.Departure = &dep
			rm.ETA = &eta
			rm.TotalMin = &total
			rm.LeaveIn = &leaveIn
		}
		msg.Results = append(msg.Results, rm)
	}

	return msg
}

func (n *NATS) Render(snap model.RankedSnapshot) {
	payload, err := json.Marshal(newSnapshotMessage(snap))
	if err != nil {
		log.Printf("marshaling snapshot: %v", err)
		return
	}
	if err := n.nc.Publish(n.subject, payload); err != nil {
		log.Printf("publishing snapshot: %v", err)
	}
}

// Multi fans a snapshot out to several sinks in order.
type Multi []interface {
	Render(model.RankedSnapshot)
}

func (m Multi) Render(snap model.RankedSnapshot) {
	for _, s := range m {
		s.Render(snap)
	}
}
