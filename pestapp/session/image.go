package session

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"mime"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/vincent-petithory/dataurl"

	// imaging이 등록하는 jpeg, png, gif, bmp, tiff 외에 webp 디코더 등록
	_ "golang.org/x/image/webp"
)

// ErrInvalidImage data URL 또는 이미지 디코딩 실패
var ErrInvalidImage = errors.New("Invalid image")

// ReadDataURL 업로드 파일 내용을 data URL 문자열로 변환
func ReadDataURL(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	mediaType, _, err := mime.ParseMediaType(mimetype.Detect(data).String())
	if err != nil {
		mediaType = "application/octet-stream"
	}

	return dataurl.New(data, mediaType).String(), nil
}

// DecodeImage data URL을 이미지로 디코딩, EXIF 방향 정보를 반영
func DecodeImage(dataURL string) (image.Image, error) {
	du, err := dataurl.DecodeString(dataURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidImage, err)
	}

	img, err := Decode(bytes.NewReader(du.Data))
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, du.MediaType.ContentType())
	}

	return img, nil
}

// Decode 이미지 디코딩, EXIF 방향 정보를 반영
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidImage, err)
	}

	return img, nil
}

// MediaType data URL의 MIME 타입
func MediaType(dataURL string) string {
	du, err := dataurl.DecodeString(dataURL)
	if err != nil {
		return ""
	}

	return du.MediaType.ContentType()
}

// Preview 정사각형으로 가운데를 잘라낸 미리보기 이미지를 data URL로 반환
func Preview(img image.Image, size int) (string, error) {
	thumb := imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return "", err
	}

	return dataurl.New(buf.Bytes(), "image/png").String(), nil
}
