package api

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harrison-roh/pest-image-classification/pestapp/constants"
	"github.com/harrison-roh/pest-image-classification/pestapp/inference"
	"github.com/harrison-roh/pest-image-classification/pestapp/session"
)

// Classifier 해충 이미지 추론 모델
type Classifier interface {
	session.Predictor
	Status() string
	GetModel() inference.ModelInfo
	Load() error
}

// APIs api 핸들러
type APIs struct {
	I Classifier
	S *session.Store

	Cookie string
	MaxAge time.Duration
}

// Index 업로드, 미리보기, 추론 결과 페이지
func (a *APIs) Index(c *gin.Context) {
	state := a.session(c).State()

	// 미리보기는 서버에서 만든 PNG data URL만 사용
	var preview template.URL
	if strings.HasPrefix(state.Preview, "data:image/png;base64,") {
		preview = template.URL(state.Preview)
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Status":     a.I.Status(),
		"HasImage":   state.HasImage,
		"Preview":    preview,
		"Prediction": state.Prediction,
	})
}

// UploadImage 업로드된 이미지를 세션에 저장하고 페이지로 이동
// 파일이 없으면 아무것도 바꾸지 않음
func (a *APIs) UploadImage(c *gin.Context) {
	if _, err := a.ingest(c, a.session(c)); err != nil && !errors.Is(err, http.ErrMissingFile) {
		log.Printf("Fail to upload image: %s", err)
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// PredictImage 세션 이미지를 추론하고 페이지로 이동
// 모델이나 이미지가 없으면 아무것도 바꾸지 않음
func (a *APIs) PredictImage(c *gin.Context) {
	if _, err := a.session(c).Predict(a.I); err != nil {
		log.Printf("Fail to predict: %s", err)
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// ShowState 세션 상태 반환
func (a *APIs) ShowState(c *gin.Context) {
	c.JSON(http.StatusOK, a.session(c).State())
}

// APIUpload 업로드된 이미지를 세션에 저장
func (a *APIs) APIUpload(c *gin.Context) {
	upload, err := a.ingest(c, a.session(c))
	if err != nil {
		Error(c, http.StatusBadRequest, err)
		return
	}

	c.JSON(http.StatusOK, upload)
}

// APIPredict 세션 이미지 추론
func (a *APIs) APIPredict(c *gin.Context) {
	pred, err := a.session(c).Predict(a.I)
	if err != nil {
		Error(c, statusOf(err), err)
		return
	}

	c.JSON(http.StatusOK, pred)
}

// InferOneShot 세션을 사용하지 않는 업로드 이미지 추론
func (a *APIs) InferOneShot(c *gin.Context) {
	if !a.I.Loaded() {
		Error(c, http.StatusConflict, inference.ErrModelNotLoaded)
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		Error(c, http.StatusBadRequest, err)
		return
	}
	defer file.Close()

	img, err := session.Decode(file)
	if err != nil {
		Error(c, http.StatusBadRequest, err)
		return
	}

	t0 := time.Now()
	pred, err := a.I.Predict(img)
	if err != nil {
		Error(c, statusOf(err), err)
		return
	}
	elapsed := time.Since(t0)

	c.JSON(http.StatusOK, gin.H{
		"file":        header.Filename,
		"bytes":       header.Size,
		"inference":   pred,
		"elapsed(ms)": elapsed.Milliseconds(),
	})
}

// ShowModel 추론 모델 정보 반환
func (a *APIs) ShowModel(c *gin.Context) {
	c.JSON(http.StatusOK, a.I.GetModel())
}

// ReloadModel 추론 모델 재로드
// 실패하면 기존 모델을 유지
func (a *APIs) ReloadModel(c *gin.Context) {
	if err := a.I.Load(); err != nil {
		if errors.Is(err, inference.ErrModelLoading) {
			Error(c, http.StatusConflict, err)
		} else {
			Error(c, http.StatusInternalServerError, err)
		}
		return
	}

	c.JSON(http.StatusOK, a.I.GetModel())
}

// Upload 세션에 저장된 업로드 정보
type Upload struct {
	File  string `json:"file"`
	Bytes int64  `json:"bytes"`
	MIME  string `json:"mime"`
}

func (a *APIs) ingest(c *gin.Context, s *session.Session) (*Upload, error) {
	header, err := c.FormFile("image")
	if err != nil {
		return nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	dataURL, err := session.ReadDataURL(file)
	if err != nil {
		return nil, err
	}

	var preview string
	if img, err := session.DecodeImage(dataURL); err == nil {
		if preview, err = session.Preview(img, constants.PreviewSize); err != nil {
			log.Printf("Fail to create preview: %s", err)
		}
	} else {
		log.Printf("Session %s: %s", s.ID, err)
	}

	s.SetImage(dataURL, preview)

	return &Upload{
		File:  header.Filename,
		Bytes: header.Size,
		MIME:  session.MediaType(dataURL),
	}, nil
}

func (a *APIs) session(c *gin.Context) *session.Session {
	id, _ := c.Cookie(a.Cookie)

	s, created := a.S.GetOrCreate(id)
	if created {
		c.SetCookie(a.Cookie, s.ID, int(a.MaxAge.Seconds()), "/", "", false, true)
	}

	return s
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, inference.ErrModelNotLoaded),
		errors.Is(err, session.ErrNoImage):
		return http.StatusConflict
	case errors.Is(err, session.ErrInvalidImage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// HTTPError api 에러 메시지
type HTTPError struct {
	Error string `json:"error"`
}

// Error api 에러를 담은 json 응답 생성
func Error(c *gin.Context, status int, err error) {
	c.JSON(status, HTTPError{
		Error: err.Error(),
	})
}
