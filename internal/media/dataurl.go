package media

import (
	"encoding/base64"
	"strings"

	"github.com/pkg/errors"
)

const ImageDataURLPrefix = "data:image"

var ErrInvalidDataURL = errors.New("invalid data url")

// IsImageDataURL 只看前缀，真正的解码在上传时做
func IsImageDataURL(s string) bool {
	return strings.HasPrefix(s, ImageDataURLPrefix)
}

// DecodeDataURL 解析 data:<mime>;base64,<payload>，只支持base64编码
func DecodeDataURL(s string) (mimeType string, data []byte, err error) {
	if !strings.HasPrefix(s, "data:") {
		return "", nil, ErrInvalidDataURL
	}
	header, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return "", nil, errors.Wrap(ErrInvalidDataURL, "missing comma")
	}
	params := strings.Split(header, ";")
	if len(params) < 2 || params[len(params)-1] != "base64" {
		return "", nil, errors.Wrap(ErrInvalidDataURL, "not base64 encoded")
	}
	mimeType = params[0]
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.Wrap(err, "decode base64 payload")
	}
	if len(data) == 0 {
		return "", nil, errors.Wrap(ErrInvalidDataURL, "empty payload")
	}
	return mimeType, data, nil
}
