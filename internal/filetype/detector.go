package filetype

import (
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// PDFMIME is the MIME type reported for PDF documents.
const PDFMIME = "application/pdf"

// Info contains detected file type information
type Info struct {
	MIMEType  string
	Extension string
	Supported bool
}

// Detect detects the actual file type using magic bytes, not filename
func Detect(filePath string) (*Info, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	log.Debug().Str("mime", mtype.String()).Str("ext", mtype.Extension()).Str("file", filePath).Msg("detected file type")
	return classify(mtype), nil
}

// DetectReader sniffs the head of r. The reader is consumed.
func DetectReader(r io.Reader) (*Info, error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	return classify(mtype), nil
}

// IsPDF reports whether the file at filePath starts with PDF magic bytes.
func IsPDF(filePath string) (bool, error) {
	info, err := Detect(filePath)
	if err != nil {
		return false, err
	}
	return info.Supported, nil
}

func classify(mtype *mimetype.MIME) *Info {
	return &Info{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
		Supported: mtype.Is(PDFMIME),
	}
}
