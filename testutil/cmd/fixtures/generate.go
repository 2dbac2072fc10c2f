package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore/jsonserialization"
	"github.com/AntonStoeckl/revisioned-eventstore-go/revision"
	"github.com/AntonStoeckl/revisioned-eventstore-go/testutil/userland"
)

const (
	maxEventsAfterCreated = 8

	percentDeactivated         = 20
	percentDeactivatedAsOldRev = 25 // share of the deactivated streams stored with the old revision
)

var names = []string{"ada", "grace", "linus", "ken", "barbara", "edsger", "margaret", "dennis"}

// fixtureRow is one row of the events table.
type fixtureRow struct {
	StreamID     string
	CommitNumber eventstore.CommitNumber
	Event        eventstore.StorableEvent
}

var csvHeader = []string{"stream_id", "commit_number", "event_type", "payload"}

func (r fixtureRow) csvRecord() []string {
	return []string{r.StreamID, fmt.Sprintf("%d", r.CommitNumber), r.Event.EventType, string(r.Event.PayloadJSON)}
}

func (r fixtureRow) copyValues() []any {
	return []any{r.StreamID, int64(r.CommitNumber), r.Event.EventType, string(r.Event.PayloadJSON)}
}

type generator struct {
	rng   *rand.Rand
	codec *jsonserialization.Codec[userland.Event, userland.OldEvent]
	ids   []userland.ID
}

func newGenerator(seed uint64, codec *jsonserialization.Codec[userland.Event, userland.OldEvent]) *generator {
	return &generator{rng: rand.New(rand.NewPCG(seed, seed)), codec: codec}
}

// newID derives stream IDs from the generator, so a seed always yields the same fixtures.
func (g *generator) newID() userland.ID {
	var raw [16]byte
	for i := range raw {
		raw[i] = byte(g.rng.UintN(256))
	}

	id := userland.ID(uuid.NewSHA1(uuid.NameSpaceOID, raw[:]))
	g.ids = append(g.ids, id)

	return id
}

// generate emits the rows of streams user streams, stream by stream in commit order.
func (g *generator) generate(streams int, emit func(fixtureRow) error) error {
	for range streams {
		id := g.newID()

		for commitNumber, item := range g.stream() {
			storable, err := g.codec.Serialize(item)
			if err != nil {
				return fmt.Errorf("serializing fixture event: %w", err)
			}

			row := fixtureRow{StreamID: id.String(), CommitNumber: eventstore.CommitNumber(commitNumber), Event: storable}
			if err := emit(row); err != nil {
				return err
			}
		}
	}

	return nil
}

type userItem = revision.OldOrNew[userland.Event, userland.OldEvent]

func (g *generator) stream() []userItem {
	items := []userItem{
		revision.New[userland.Event, userland.OldEvent](userland.Created{Name: g.name(), Admin: g.rng.IntN(10) == 0}),
	}

	for range g.rng.IntN(maxEventsAfterCreated + 1) {
		items = append(items, revision.New[userland.Event, userland.OldEvent](g.event()))
	}

	if g.rng.IntN(100) < percentDeactivated {
		if g.rng.IntN(100) < percentDeactivatedAsOldRev {
			items = append(items, revision.Old[userland.Event, userland.OldEvent](userland.DeactivatedWithoutReason{}))
		} else {
			items = append(items, revision.New[userland.Event, userland.OldEvent](userland.Deactivated{Reason: "inactive"}))
		}
	}

	return items
}

func (g *generator) event() userland.Event {
	switch g.rng.IntN(3) {
	case 0:
		return userland.Renamed{NewName: g.name()}
	case 1:
		return userland.Befriended{User: g.knownID()}
	default:
		return userland.PromotedToAdmin{By: g.knownID()}
	}
}

func (g *generator) name() string {
	return names[g.rng.IntN(len(names))]
}

func (g *generator) knownID() userland.ID {
	return g.ids[g.rng.IntN(len(g.ids))]
}

// writeCSV writes the rows of streams user streams with a header, ready for COPY ... WITH (FORMAT csv, HEADER).
func (g *generator) writeCSV(w io.Writer, streams int) (int, error) {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return 0, err
	}

	count := 0
	err := g.generate(streams, func(row fixtureRow) error {
		count++
		return writer.Write(row.csvRecord())
	})
	if err != nil {
		return count, err
	}

	writer.Flush()

	return count, writer.Error()
}
