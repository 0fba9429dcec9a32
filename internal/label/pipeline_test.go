package label

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/logiflow/internal/lexicon"
	"github.com/zombor/logiflow/internal/scanning"
)

type stubOCR struct {
	text        *scanning.ExtractedText
	err         error
	gotData     []byte
	gotType     string
	gotDeadline bool
}

func (s *stubOCR) Recognize(ctx context.Context, imageData []byte, contentType string) (*scanning.ExtractedText, error) {
	s.gotData = imageData
	s.gotType = contentType
	_, s.gotDeadline = ctx.Deadline()
	return s.text, s.err
}

func (s *stubOCR) Close() error { return nil }

type stubExtractor struct {
	mu      sync.Mutex
	data    *scanning.AddressData
	err     error
	gotText string
	calls   int
}

func (s *stubExtractor) ExtractAddress(_ context.Context, text string) (*scanning.AddressData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.gotText = text
	return s.data, s.err
}

func (s *stubExtractor) Close() error { return nil }

var _ = Describe("Pipeline", func() {
	const labelText = "João Silva\nRua A 123\nBairro Jardim Paulista\nSão Paulo - SP\n01310-100"

	var (
		ocr       *stubOCR
		extractor *stubExtractor
		pipeline  *Pipeline
		image     string
		ctype     string
		result    *Result
		err       error
	)

	BeforeEach(func() {
		ocr = &stubOCR{text: &scanning.ExtractedText{Text: labelText}}
		extractor = &stubExtractor{data: &scanning.AddressData{
			Name:   "João Silva",
			Street: "Rua A 123",
			City:   "São Paulo",
			State:  "SP",
		}}
		image = base64.StdEncoding.EncodeToString([]byte("jpeg bytes"))
		ctype = "image/jpeg"

		var perr error
		pipeline, perr = NewPipeline(ocr, extractor, lexicon.Default(), time.Minute)
		Expect(perr).NotTo(HaveOccurred())
	})

	Describe("Scan", func() {
		JustBeforeEach(func() {
			result, err = pipeline.Scan(context.Background(), image, ctype)
		})

		It("should resolve the address with pattern fallbacks", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Name).To(Equal("João Silva"))
			Expect(result.Street).To(Equal("Rua A 123"))
			Expect(result.City).To(Equal("São Paulo"))
			Expect(result.State).To(Equal("SP"))
			Expect(result.District).To(Equal("Jardim Paulista"))
			Expect(result.PostalCode).To(Equal("01310-100"))
		})

		It("should hand the decoded image to OCR under a deadline", func() {
			Expect(ocr.gotData).To(Equal([]byte("jpeg bytes")))
			Expect(ocr.gotType).To(Equal("image/jpeg"))
			Expect(ocr.gotDeadline).To(BeTrue())
		})

		It("should send the cleaned text to the extractor and report it", func() {
			Expect(extractor.gotText).To(Equal(labelText))
			Expect(result.RawText).To(Equal(labelText))
			Expect(result.Lines).To(HaveLen(5))
		})

		When("the image is a data URL", func() {
			BeforeEach(func() {
				image = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png bytes"))
				ctype = ""
			})

			It("should take the media type from the URL", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(ocr.gotData).To(Equal([]byte("png bytes")))
				Expect(ocr.gotType).To(Equal("image/png"))
			})
		})

		When("no image is supplied", func() {
			BeforeEach(func() {
				image = "   "
			})

			It("should return ErrInputMissing without calling OCR", func() {
				Expect(err).To(MatchError(ErrInputMissing))
				Expect(ocr.gotData).To(BeNil())
			})
		})

		When("the image is not base64", func() {
			BeforeEach(func() {
				image = "%%%"
			})

			It("should return ErrImageDecode", func() {
				Expect(err).To(MatchError(ErrImageDecode))
				Expect(err.Error()).To(ContainSubstring("decoding image"))
				Expect(ocr.gotData).To(BeNil())
			})
		})

		When("the data URL has no payload separator", func() {
			BeforeEach(func() {
				image = "data:image/png;base64"
			})

			It("should return ErrImageDecode", func() {
				Expect(err).To(MatchError(ErrImageDecode))
			})
		})

		When("OCR fails", func() {
			BeforeEach(func() {
				ocr.err = errors.New("vision down")
			})

			It("should surface the error", func() {
				Expect(err).To(MatchError(ErrRecognition))
				Expect(err.Error()).To(ContainSubstring("vision down"))
				Expect(extractor.calls).To(BeZero())
			})
		})

		When("OCR returns neither text nor an error", func() {
			BeforeEach(func() {
				ocr.text = nil
			})

			It("should return ErrExtractionEmpty", func() {
				Expect(err).To(MatchError(ErrExtractionEmpty))
				Expect(extractor.calls).To(BeZero())
			})
		})

		When("OCR finds no text", func() {
			BeforeEach(func() {
				ocr.text = &scanning.ExtractedText{Text: "  \n "}
			})

			It("should return ErrExtractionEmpty", func() {
				Expect(err).To(MatchError(ErrExtractionEmpty))
				Expect(extractor.calls).To(BeZero())
			})
		})

		When("the label holds only noise", func() {
			BeforeEach(func() {
				ocr.text = &scanning.ExtractedText{Text: "REMETENTE Loja X\nPEDIDO 123"}
			})

			It("should return ErrExtractionEmpty without calling the extractor", func() {
				Expect(errors.Is(err, ErrExtractionEmpty)).To(BeTrue())
				Expect(extractor.calls).To(BeZero())
			})
		})

		When("the extractor fails", func() {
			BeforeEach(func() {
				extractor.err = scanning.ErrExtractionParse
			})

			It("should wrap the extractor error", func() {
				Expect(errors.Is(err, scanning.ErrExtractionParse)).To(BeTrue())
				Expect(err.Error()).To(ContainSubstring("extracting address"))
				Expect(result).To(BeNil())
			})
		})

		When("the extractor returns neither data nor an error", func() {
			BeforeEach(func() {
				extractor.data = nil
			})

			It("should return ErrExtractionServiceEmpty", func() {
				Expect(errors.Is(err, scanning.ErrExtractionServiceEmpty)).To(BeTrue())
				Expect(result).To(BeNil())
			})
		})

		When("the extractor found its own postal code", func() {
			BeforeEach(func() {
				extractor.data.PostalCode = "01310-999"
			})

			It("should keep it", func() {
				Expect(result.PostalCode).To(Equal("01310-999"))
			})
		})
	})

	Describe("ResolveText", func() {
		It("should work on pre-recognized text", func() {
			result, err = pipeline.ResolveText(context.Background(), scanning.ExtractedText{Lines: []string{"Rua B 9", "Vila Mariana", "04101300"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.District).To(Equal("Vila Mariana"))
			Expect(result.PostalCode).To(Equal("04101300"))
		})
	})
})
