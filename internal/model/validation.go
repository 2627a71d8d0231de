package model

// QRValidation is one row of the append-only audit of QR scan attempts.
//
// Fields:
//
//	ID          – surrogate primary key.
//	DateTime    – when the scan was recorded (store-side clock).
//	QRCode      – token presented by the QR payload.
//	ValidatorID – validator device that performed the scan.
//	Valid       – outcome reported to the validator.
type QRValidation struct {
	ID          uint64 // qr_validated.id
	DateTime    string // qr_validated.datetime
	QRCode      string // qr_validated.qr_code
	ValidatorID int64  // qr_validated.validator_id
	Valid       bool   // qr_validated.valid
}

// CardValidation mirrors the card_validated table.  The table is created
// for parity with the central schema but nothing writes to it yet; card
// checks are currently only answered, not audited.
type CardValidation struct {
	ID       uint64 // card_validated.id
	DateTime string // card_validated.datetime
	CardID   int64  // card_validated.card_id
	Valid    bool   // card_validated.valid
}
