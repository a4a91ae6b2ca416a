package api

import (
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
	"github.com/harrison-roh/pest-image-classification/pestapp/web"
)

// Register 페이지, api, 정적 파일 라우팅 등록
func (a *APIs) Register(r *gin.Engine) error {
	tmpl, err := web.Templates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)

	assets, err := web.Assets()
	if err != nil {
		return err
	}
	r.Use(static.Serve("/assets", assets))

	r.GET("/", a.Index)
	r.POST("/image", a.UploadImage)
	r.POST("/predict", a.PredictImage)
	r.GET("/health", a.Health)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("state", a.ShowState)
		apiGroup.POST("image", a.APIUpload)
		apiGroup.POST("predict", a.APIPredict)
		apiGroup.POST("inference", a.InferOneShot)
		apiGroup.GET("model", a.ShowModel)
		apiGroup.PUT("model", a.ReloadModel)
	}

	return nil
}
