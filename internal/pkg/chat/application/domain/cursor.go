package chat

import (
	"encoding/base64"
	"strconv"
)

// EncodeCursor turns the oldest message id of a page into an opaque cursor.
func EncodeCursor(messageID int64) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.FormatInt(messageID, 10)))
}

// DecodeCursor reverses EncodeCursor. Anything that does not decode to a
// positive integer is rejected with ErrInvalidCursor.
func DecodeCursor(cursor string) (int64, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, ErrInvalidCursor
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidCursor
	}
	return id, nil
}
