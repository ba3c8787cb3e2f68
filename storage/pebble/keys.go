package pebble

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// operation records keyed by operation hash
	operationKey = byte(1)
	// pending set membership keyed by operation hash
	pendingKey = byte(2)
)

func makePrefix(code byte, key ...any) []byte {
	prefix := make([]byte, 1)
	prefix[0] = code

	// allow for special keys
	if len(key) == 0 {
		return prefix
	}
	if len(key) != 1 {
		panic("unsupported key length")
	}

	switch i := key[0].(type) {
	case uint64:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, i)
		return append(prefix, b...)
	case common.Hash:
		return append(prefix, i.Bytes()...)
	default:
		panic(fmt.Sprintf("unsupported key type to convert (%T)", key[0]))
	}
}
