package mysql

const bookingColumns = `id, guest_id, room_type, room_number, check_in, check_out, status, rate_per_night, created_at`

const insertBookingSQL = `
INSERT INTO bookings
  (id, guest_id, room_type, room_number, check_in, check_out, status, rate_per_night, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Mirror writes from the importer; the hosted backend is the source of truth.
const upsertBookingSQL = `
INSERT INTO bookings
  (id, guest_id, room_type, room_number, check_in, check_out, status, rate_per_night, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  guest_id       = VALUES(guest_id),
  room_type      = VALUES(room_type),
  room_number    = VALUES(room_number),
  check_in       = VALUES(check_in),
  check_out      = VALUES(check_out),
  status         = VALUES(status),
  rate_per_night = VALUES(rate_per_night)
`

// Ensures the per-room-type lock row exists without touching its counts.
const ensureRoomTypeSQL = `
INSERT INTO room_inventory (room_type) VALUES (?)
ON DUPLICATE KEY UPDATE room_type = room_type
`

// Serializes booking writers per room type for the rest of the transaction.
const lockRoomTypeSQL = `SELECT room_type FROM room_inventory WHERE room_type = ? FOR UPDATE`

const upsertInventorySQL = `
INSERT INTO room_inventory (room_type, rooms, base_rate)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE
  rooms     = VALUES(rooms),
  base_rate = VALUES(base_rate)
`

// Half-open overlap: existing.check_in < candidate.check_out AND candidate.check_in < existing.check_out.
const overlappingBookingsSQL = `
SELECT ` + bookingColumns + `
FROM bookings
WHERE room_type = ?
  AND status <> 'cancelled'
  AND check_in < ?
  AND check_out > ?
  AND id <> ?
ORDER BY check_in, id
`

const getBookingSQL = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`

const getBookingForUpdateSQL = getBookingSQL + ` FOR UPDATE`

const updateBookingStatusSQL = `UPDATE bookings SET status = ? WHERE id = ?`

const updateBookingDatesSQL = `UPDATE bookings SET check_in = ?, check_out = ? WHERE id = ?`

const upsertOrderSQL = `
INSERT INTO orders (kind, id, order_date, amount, status)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  order_date = VALUES(order_date),
  amount     = VALUES(amount),
  status     = VALUES(status)
`

const listOrdersSQL = `
SELECT kind, id, order_date, amount, status
FROM orders
WHERE order_date >= ? AND order_date < ?
ORDER BY order_date, kind, id
`

const insertRejectSQL = `
INSERT INTO import_rejects (resource, source_id, reason)
VALUES (?, ?, ?)
ON DUPLICATE KEY UPDATE reason = VALUES(reason), seen_at = CURRENT_TIMESTAMP(3)
`
