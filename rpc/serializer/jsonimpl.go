package serializer

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/serialkv/rpc/common"
)

// NewJSONSerializer creates a new serializer that writes messages as JSON objects.
// Byte fields are base64 encoded, empty fields are omitted.
func NewJSONSerializer() IRPCSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IRPCSerializer interface using json encoding
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode json message: %w", err)
	}
	return data, nil
}

func (j jsonSerializerImpl) Deserialize(b []byte, msg *common.Message) error {
	// Decode into a fresh message so fields of a reused msg do not survive
	var decoded common.Message
	if err := json.Unmarshal(b, &decoded); err != nil {
		return fmt.Errorf("failed to decode json message: %w", err)
	}
	*msg = decoded
	return nil
}
