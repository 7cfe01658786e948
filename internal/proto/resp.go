package proto

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	custom_err "github.com/Viet-ph/redis-ae/internal/error"
)

// Constants for RESP protocol
const (
	SimpleStringPrefix = '+'
	ErrorPrefix        = '-'
	IntegerPrefix      = ':'
	BulkStringPrefix   = '$'
	ArrayPrefix        = '*'
	CRLF               = "\r\n"
)

// Request limits.
const (
	MaxInlineSize     = 64 * 1024
	MaxBulkLength     = 512 * 1024 * 1024
	MaxMultibulkCount = 1024 * 1024
)

// SimpleString is always encoded as a RESP simple string, for status
// replies such as OK and PONG.
type SimpleString string

// ErrorReply is a decoded RESP error ("-ERR ...").
type ErrorReply string

func (e ErrorReply) Error() string {
	return string(e)
}

// Decoder reads RESP values out of a byte slice that may end in the middle
// of a value. When that happens the decoder reports
// custom_err.ErrorIncompleteRESP and leaves its offset where the value
// started, so the caller can append more input and retry.
type Decoder struct {
	buf []byte
	pos int
}

func NewDecoder(buf []byte) *Decoder {
	return &Decoder{
		buf: buf,
	}
}

// Offset is the number of bytes consumed by fully decoded values.
func (decoder *Decoder) Offset() int {
	return decoder.pos
}

// Buffered reports whether undecoded bytes remain.
func (decoder *Decoder) Buffered() bool {
	return decoder.pos < len(decoder.buf)
}

func protocolError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", custom_err.ErrorProtocol, fmt.Sprintf(format, args...))
}

// readLine returns the line starting at pos without its CRLF, and the offset
// right after it.
func (decoder *Decoder) readLine(pos int) ([]byte, int, error) {
	idx := bytes.IndexByte(decoder.buf[pos:], '\n')
	if idx < 0 {
		if len(decoder.buf)-pos > MaxInlineSize {
			return nil, 0, protocolError("too big inline request")
		}
		return nil, 0, custom_err.ErrorIncompleteRESP
	}

	line := decoder.buf[pos : pos+idx]
	line = bytes.TrimSuffix(line, []byte{'\r'})
	return line, pos + idx + 1, nil
}

func (decoder *Decoder) readInt(pos int) (int64, int, error) {
	line, next, err := decoder.readLine(pos)
	if err != nil {
		return 0, 0, err
	}

	n, err := strconv.ParseInt(string(line), 10, 64)
	if err != nil {
		return 0, 0, protocolError("invalid integer %q", line)
	}
	return n, next, nil
}

// Decode returns the next value: string for simple and bulk strings,
// ErrorReply for errors, int64 for integers, []any for arrays and nil for
// null bulk strings and null arrays.
func (decoder *Decoder) Decode() (any, error) {
	value, next, err := decoder.decode(decoder.pos)
	if err != nil {
		return nil, err
	}
	decoder.pos = next
	return value, nil
}

func (decoder *Decoder) decode(pos int) (any, int, error) {
	if pos >= len(decoder.buf) {
		return nil, 0, custom_err.ErrorIncompleteRESP
	}

	prefix := decoder.buf[pos]
	switch prefix {
	case SimpleStringPrefix:
		line, next, err := decoder.readLine(pos + 1)
		if err != nil {
			return nil, 0, err
		}
		return string(line), next, nil
	case ErrorPrefix:
		line, next, err := decoder.readLine(pos + 1)
		if err != nil {
			return nil, 0, err
		}
		return ErrorReply(line), next, nil
	case IntegerPrefix:
		return decoder.readInt(pos + 1)
	case BulkStringPrefix:
		return decoder.decodeBulkString(pos + 1)
	case ArrayPrefix:
		return decoder.decodeArray(pos + 1)
	default:
		return nil, 0, protocolError("unknown prefix %q", prefix)
	}
}

func (decoder *Decoder) decodeBulkString(pos int) (any, int, error) {
	length, next, err := decoder.readInt(pos)
	if err != nil {
		return nil, 0, err
	}
	if length == -1 {
		return nil, next, nil // Null bulk string
	}
	if length < 0 || length > MaxBulkLength {
		return nil, 0, protocolError("invalid bulk length")
	}

	end := next + int(length)
	if end+2 > len(decoder.buf) {
		return nil, 0, custom_err.ErrorIncompleteRESP
	}
	if decoder.buf[end] != '\r' || decoder.buf[end+1] != '\n' {
		return nil, 0, protocolError("bulk string not terminated by CRLF")
	}

	return string(decoder.buf[next:end]), end + 2, nil
}

func (decoder *Decoder) decodeArray(pos int) (any, int, error) {
	count, next, err := decoder.readInt(pos)
	if err != nil {
		return nil, 0, err
	}
	if count == -1 {
		return nil, next, nil // Null array
	}
	if count < 0 || count > MaxMultibulkCount {
		return nil, 0, protocolError("invalid multibulk length")
	}

	elements := make([]any, count)
	for i := range elements {
		var elem any
		elem, next, err = decoder.decode(next)
		if err != nil {
			return nil, 0, err
		}
		elements[i] = elem
	}

	return elements, next, nil
}

// DecodeRequest reads the next client request, either a multi bulk array of
// bulk strings or an inline command line. An empty request yields an empty
// slice, which callers skip.
func (decoder *Decoder) DecodeRequest() ([]string, error) {
	if !decoder.Buffered() {
		return nil, custom_err.ErrorIncompleteRESP
	}

	var (
		args []string
		next int
		err  error
	)
	if decoder.buf[decoder.pos] == ArrayPrefix {
		args, next, err = decoder.decodeMultibulk(decoder.pos + 1)
	} else {
		args, next, err = decoder.decodeInline(decoder.pos)
	}
	if err != nil {
		return nil, err
	}

	decoder.pos = next
	return args, nil
}

func (decoder *Decoder) decodeMultibulk(pos int) ([]string, int, error) {
	count, next, err := decoder.readInt(pos)
	if err != nil {
		return nil, 0, err
	}
	if count > MaxMultibulkCount {
		return nil, 0, protocolError("invalid multibulk length")
	}
	if count <= 0 {
		return []string{}, next, nil
	}

	args := make([]string, 0, count)
	for range count {
		if next >= len(decoder.buf) {
			return nil, 0, custom_err.ErrorIncompleteRESP
		}
		if decoder.buf[next] != BulkStringPrefix {
			return nil, 0, protocolError("expected '$', got '%c'", decoder.buf[next])
		}

		var value any
		value, next, err = decoder.decodeBulkString(next + 1)
		if err != nil {
			return nil, 0, err
		}
		arg, _ := value.(string)
		args = append(args, arg)
	}

	return args, next, nil
}

func (decoder *Decoder) decodeInline(pos int) ([]string, int, error) {
	line, next, err := decoder.readLine(pos)
	if err != nil {
		return nil, 0, err
	}

	fields := bytes.Fields(line)
	args := make([]string, len(fields))
	for i, field := range fields {
		args[i] = string(field)
	}
	return args, next, nil
}

// Encoder is responsible for encoding RESP messages to an io.Writer.
type Encoder struct {
	buf *bytes.Buffer
}

// NewEncoder creates a new Encoder.
func NewEncoder() *Encoder {
	return &Encoder{
		buf: bytes.NewBuffer(make([]byte, 0)),
	}
}

// Encode takes a Go value and encodes it as a RESP message. Strings are
// written as simple strings when isSimple is set, bulk strings otherwise.
func (encoder *Encoder) Encode(data any, isSimple bool) error {
	switch v := data.(type) {
	case nil:
		_, err := encoder.buf.WriteString(fmt.Sprintf("%c%d%s", BulkStringPrefix, -1, CRLF))
		return err
	case string:
		return encoder.encodeString(v, isSimple)
	case SimpleString:
		return encoder.encodeString(string(v), true)
	case error:
		return encoder.encodeError(v)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		_, err := encoder.buf.WriteString(fmt.Sprintf("%c%d%s", IntegerPrefix, data, CRLF))
		if err != nil {
			return err
		}
		return nil
	case []string:
		return encoder.encodeArray(v)
	case []any:
		return encoder.encodeAnyArray(v)
	default:
		return fmt.Errorf("unsupported type: %T", v)
	}
}

func (encoder *Encoder) encodeError(err error) error {
	var writeData string
	if errors.Is(err, custom_err.ErrorKeyNotExists) || errors.Is(err, custom_err.ErrorNotSet) {
		writeData = fmt.Sprintf("%c%d%s", BulkStringPrefix, -1, CRLF)
	} else {
		writeData = fmt.Sprintf("%c%s%s", ErrorPrefix, err.Error(), CRLF)
	}
	_, err = encoder.buf.WriteString(writeData)
	if err != nil {
		return err
	}
	return nil
}

func (encoder *Encoder) encodeString(data string, isSimple bool) error {
	var writeData string
	if isSimple {
		writeData = fmt.Sprintf("%c%s%s", SimpleStringPrefix, data, CRLF)
	} else {
		writeData = fmt.Sprintf("%c%d%s%s%s", BulkStringPrefix, len(data), CRLF, data, CRLF)
	}
	_, err := encoder.buf.WriteString(writeData)
	if err != nil {
		return err
	}

	return nil
}

func (encoder *Encoder) encodeArray(datas []string) error {
	_, err := encoder.buf.WriteString(fmt.Sprintf("%c%d%s", ArrayPrefix, len(datas), CRLF))
	if err != nil {
		return err
	}

	for _, data := range datas {
		err := encoder.Encode(data, false)
		if err != nil {
			return err
		}
	}

	return nil
}

func (encoder *Encoder) encodeAnyArray(datas []any) error {
	_, err := encoder.buf.WriteString(fmt.Sprintf("%c%d%s", ArrayPrefix, len(datas), CRLF))
	if err != nil {
		return err
	}

	for _, data := range datas {
		err := encoder.Encode(data, false)
		if err != nil {
			return err
		}
	}

	return nil
}

func (encoder *Encoder) GetBufValue() []byte {
	return encoder.buf.Bytes()
}

func (encoder *Encoder) Reset() {
	encoder.buf.Reset()
}
