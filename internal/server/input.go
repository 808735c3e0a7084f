package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/raine/skybet/internal/analysis"
	"github.com/raine/skybet/internal/imagedata"
)

const (
	fieldPhoto  = "photoDataUri"
	fieldImages = "images"
	fieldText   = "text"

	maxUploadImages = 10
)

// fieldErrors maps a form field to its validation messages.
type fieldErrors map[string][]string

func (fe fieldErrors) add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

var errBadBody = errors.New("unreadable request body")

// parseInput reads an analysis request from a JSON body or a multipart form.
// JSON bodies carry photoDataUri as a string or a list of strings.
func (s *Server) parseInput(r *http.Request) (analysis.Input, fieldErrors, error) {
	// Base64 inflates by 4/3; leave room for the text field.
	limit := maxUploadImages*(s.maxImage*4/3+4) + 1<<20
	r.Body = http.MaxBytesReader(nil, r.Body, limit)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		return s.parseMultipart(r)
	case "application/json", "":
		return s.parseJSON(r)
	default:
		return analysis.Input{}, nil, fmt.Errorf("%w: unsupported content type %s", errBadBody, mediaType)
	}
}

func (s *Server) parseJSON(r *http.Request) (analysis.Input, fieldErrors, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return analysis.Input{}, nil, fmt.Errorf("%w: %v", errBadBody, err)
	}
	if !gjson.ValidBytes(body) {
		return analysis.Input{}, nil, fmt.Errorf("%w: invalid JSON", errBadBody)
	}
	parsed := gjson.ParseBytes(body)

	var uris []string
	photos := parsed.Get(fieldPhoto)
	switch {
	case photos.IsArray():
		photos.ForEach(func(_, v gjson.Result) bool {
			uris = append(uris, v.String())
			return true
		})
	case photos.Type == gjson.String:
		uris = append(uris, photos.String())
	}

	in := analysis.Input{Text: parsed.Get(fieldText).String()}
	errs := fieldErrors{}
	in.Images = s.decodeDataURIs(uris, errs)
	return in, errs, nil
}

func (s *Server) parseMultipart(r *http.Request) (analysis.Input, fieldErrors, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return analysis.Input{}, nil, fmt.Errorf("%w: %v", errBadBody, err)
	}

	in := analysis.Input{Text: r.FormValue(fieldText)}
	errs := fieldErrors{}
	in.Images = s.decodeDataURIs(r.MultipartForm.Value[fieldPhoto], errs)

	for _, fh := range r.MultipartForm.File[fieldImages] {
		if fh.Size > s.maxImage {
			errs.add(fieldImages, fmt.Sprintf("%s: %v", fh.Filename, imagedata.ErrImageTooLarge))
			continue
		}
		f, err := fh.Open()
		if err != nil {
			errs.add(fieldImages, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			errs.add(fieldImages, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}
		img, err := imagedata.FromBytes(data, s.maxImage)
		if err != nil {
			errs.add(fieldImages, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}
		in.Images = append(in.Images, img)
	}

	if len(in.Images) > maxUploadImages {
		errs.add(fieldImages, fmt.Sprintf("at most %d images are accepted", maxUploadImages))
	}
	return in, errs, nil
}

func (s *Server) decodeDataURIs(uris []string, errs fieldErrors) []imagedata.Image {
	var images []imagedata.Image
	for i, uri := range uris {
		if strings.TrimSpace(uri) == "" {
			continue
		}
		img, err := imagedata.ParseDataURI(uri, s.maxImage)
		if err != nil {
			errs.add(fieldPhoto, fmt.Sprintf("image %d: %v", i+1, err))
			continue
		}
		images = append(images, img)
	}
	if len(images) > maxUploadImages {
		errs.add(fieldPhoto, fmt.Sprintf("at most %d images are accepted", maxUploadImages))
	}
	return images
}
