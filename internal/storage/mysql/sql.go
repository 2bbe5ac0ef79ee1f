package mysql

const upsertSearchSQL = `
INSERT INTO searches
  (id, origin, destination, departure, cabin, currency, total, is_fallback, raw)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  currency    = VALUES(currency),
  total       = VALUES(total),
  is_fallback = VALUES(is_fallback),
  raw         = VALUES(raw),
  updated_at  = CURRENT_TIMESTAMP
`

// Flat columns carry what list views filter and sort on; the full normalized
// record rides along as JSON in `offer`.
const insertOffersPrefix = "INSERT INTO offers\n" +
	"  (search_id, position, offer_id, airline_code, origin, destination, stops, price, currency, offer)\nVALUES "

const insertOffersOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  position     = VALUES(position),\n" +
	"  airline_code = VALUES(airline_code),\n" +
	"  origin       = VALUES(origin),\n" +
	"  destination  = VALUES(destination),\n" +
	"  stops        = VALUES(stops),\n" +
	"  price        = VALUES(price),\n" +
	"  currency     = VALUES(currency),\n" +
	"  offer        = VALUES(offer)\n"

const insertMissSQL = `
INSERT INTO shop_misses (origin, destination, departure, http_status, reason)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE seen_at = CURRENT_TIMESTAMP, http_status = VALUES(http_status), reason = VALUES(reason)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getSearchSQL = `
SELECT
  s.id,
  s.origin,
  s.destination,
  s.departure,
  s.cabin,
  s.currency,
  s.total,
  s.is_fallback,
  s.created_at,
  s.raw
FROM searches s
WHERE s.id = ?
`

const listOffersSQL = `
SELECT offer
FROM offers
WHERE search_id = ?
ORDER BY position ASC, id ASC
LIMIT ?
`
