package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"flight_shop/internal/domain"
)

func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) SaveSearch(ctx context.Context, s domain.SearchSnapshot) error {
	_, err := r.db.ExecContext(ctx, upsertSearchSQL,
		s.ID,
		s.Origin,
		s.Destination,
		s.Departure.Format("2006-01-02"),
		s.Cabin,
		s.Currency,
		s.Total,
		s.IsFallback,
		valJSON(s.RawJSON),
	)
	return err
}

func (r *Repo) SaveOffers(ctx context.Context, searchID string, offers []domain.FlightOffer) error {
	if len(offers) == 0 {
		return nil
	}
	values := make([]string, 0, len(offers))
	args := make([]any, 0, len(offers)*10) // 10 params per row
	for i, o := range offers {
		blob, err := json.Marshal(o)
		if err != nil {
			log.Error().Err(err).Str("offer", o.ID).Msg("marshal offer failed")
			continue
		}
		values = append(values, "(?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			searchID,
			i, // position in normalized order
			o.ID,
			o.Airline.Code,
			o.Departure.Airport,
			o.Arrival.Airport,
			o.Stops,
			o.Price,
			o.Currency,
			string(blob),
		)
	}
	if len(values) == 0 {
		return nil
	}
	sqlStr := insertOffersPrefix + strings.Join(values, ",") + insertOffersOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) LogMiss(ctx context.Context, q domain.SearchQuery, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL,
		q.Origin, q.Destination, q.Departure.Format("2006-01-02"), status, reason)
	return err
}

func (r *Repo) GetSearch(ctx context.Context, id string) (domain.SearchSnapshot, error) {
	row := r.db.QueryRowContext(ctx, getSearchSQL, id)

	var s domain.SearchSnapshot
	var cabin, currency sql.NullString
	var createdAt sql.NullTime
	var rawB []byte

	var departure sql.NullTime
	if err := row.Scan(
		&s.ID,
		&s.Origin,
		&s.Destination,
		&departure,
		&cabin,
		&currency,
		&s.Total,
		&s.IsFallback,
		&createdAt,
		&rawB,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.SearchSnapshot{}, domain.ErrNotFound
		}
		return domain.SearchSnapshot{}, err
	}

	if departure.Valid {
		s.Departure = departure.Time
	}
	if cabin.Valid {
		s.Cabin = cabin.String
	}
	if currency.Valid {
		s.Currency = currency.String
	}
	if createdAt.Valid {
		t := createdAt.Time
		s.CreatedAt = &t
	}
	if len(rawB) > 0 {
		s.RawJSON = rawB
	}
	return s, nil
}

func (r *Repo) ListOffers(ctx context.Context, searchID string, q domain.OffersQuery) ([]domain.FlightOffer, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listOffersSQL, searchID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FlightOffer
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var o domain.FlightOffer
		if err := json.Unmarshal(blob, &o); err != nil {
			log.Error().Err(err).Str("search", searchID).Msg("unmarshal stored offer failed")
			continue
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
