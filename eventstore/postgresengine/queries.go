package postgresengine

import (
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"

	"github.com/AntonStoeckl/revisioned-eventstore-go/eventstore"
)

const (
	colStreamID     = "stream_id"
	colCommitNumber = "commit_number"
	colEventType    = "event_type"
	colPayload      = "payload"
	colCommittedAt  = "committed_at"
	colOrdinal      = "ord"
	cteContext      = "context"
	cteVals         = "vals"
	aliasNextCommit = "next_commit"
	dialectPostgres = "postgres"
	castText        = "?::text"
	castInteger     = "?::integer"
	castJsonb       = "?::jsonb"
	nextCommitExpr  = "COALESCE(MAX(?) + 1, 0)"
)

type sqlQueryString = string

// CreateTableSQL returns the DDL of an events table named tableName.
func CreateTableSQL(tableName string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	%s text NOT NULL,
	%s bigint NOT NULL CHECK (%s >= 0),
	%s text NOT NULL,
	%s jsonb NOT NULL,
	%s timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (%s, %s)
)`,
		pgx.Identifier{tableName}.Sanitize(),
		colStreamID,
		colCommitNumber, colCommitNumber,
		colEventType,
		colPayload,
		colCommittedAt,
		colStreamID, colCommitNumber,
	)
}

// buildLengthQuery selects the number of events in a stream, which is its next commit number.
func buildLengthQuery(tableName string, streamID string) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(tableName).
		Select(goqu.L(nextCommitExpr, goqu.C(colCommitNumber)).As(aliasNextCommit)).
		Where(goqu.C(colStreamID).Eq(streamID))

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// buildReadQuery selects the events of a resolved read range in read order.
func buildReadQuery(tableName string, streamID string, selected eventstore.ReadRange) (sqlQueryString, error) {
	order := goqu.C(colCommitNumber).Asc()
	if selected.Step < 0 {
		order = goqu.C(colCommitNumber).Desc()
	}

	selectStmt := goqu.Dialect(dialectPostgres).
		From(tableName).
		Select(colEventType, colPayload).
		Where(
			goqu.C(colStreamID).Eq(streamID),
			goqu.C(colCommitNumber).Between(goqu.Range(int64(selected.Lowest()), int64(selected.Highest()))),
		).
		Order(order)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// buildCommitQuery builds a single INSERT that numbers events from the stream's current length,
// and inserts nothing unless the condition holds and the whole batch fits.
// It returns the commit numbers of the inserted rows.
func buildCommitQuery(
	tableName string,
	streamID string,
	events []eventstore.StorableEvent,
	condition eventstore.Condition,
) (sqlQueryString, error) {

	builder := goqu.Dialect(dialectPostgres)

	cteStmt := builder.
		From(tableName).
		Select(goqu.L(nextCommitExpr, goqu.C(colCommitNumber)).As(aliasNextCommit)).
		Where(goqu.C(colStreamID).Eq(streamID))

	valuesStmt := builder.Select(
		goqu.L(castInteger, 0).As(colOrdinal),
		goqu.L(castText, events[0].EventType).As(colEventType),
		goqu.L(castJsonb, string(events[0].PayloadJSON)).As(colPayload),
	)

	for i := 1; i < len(events); i++ {
		valuesStmt = valuesStmt.UnionAll(
			builder.Select(
				goqu.L(castInteger, i).As(colOrdinal),
				goqu.L(castText, events[i].EventType).As(colEventType),
				goqu.L(castJsonb, string(events[i].PayloadJSON)).As(colPayload),
			),
		)
	}

	nextCommit := goqu.I(cteContext + "." + aliasNextCommit)

	// the whole batch must fit below the highest commit number
	guards := []exp.Expression{
		nextCommit.Lte(int64(eventstore.MaxCommitNumber) - int64(len(events)-1)),
	}

	if expected, ok := condition.CommitNumber(); ok {
		guards = append(guards, nextCommit.Eq(int64(expected)))
	}

	insertStmt := builder.
		Insert(tableName).
		Cols(colStreamID, colCommitNumber, colEventType, colPayload).
		With(cteContext, cteStmt).
		With(cteVals, valuesStmt).
		FromQuery(
			builder.From(cteContext, cteVals).
				Select(
					goqu.L(castText, streamID),
					goqu.L("? + ?", nextCommit, goqu.I(cteVals+"."+colOrdinal)),
					goqu.I(cteVals+"."+colEventType),
					goqu.I(cteVals+"."+colPayload),
				).
				Where(guards...),
		).
		Returning(colCommitNumber)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(eventstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}
