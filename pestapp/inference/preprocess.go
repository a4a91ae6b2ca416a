package inference

import (
	"image"
	"image/color"

	"github.com/harrison-roh/pest-image-classification/pestapp/constants"
)

// Tensor NHWC 배치 형태의 float32 텐서
type Tensor struct {
	Shape []int
	Data  []float32
}

// Batch 텐서를 [batch][height][width][channel] 슬라이스로 변환
// 반환되는 슬라이스는 Data를 공유함
func (t *Tensor) Batch() [][][][]float32 {
	n, h, w, ch := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]

	batch := make([][][][]float32, n)
	for b := range batch {
		batch[b] = make([][][]float32, h)
		for y := range batch[b] {
			batch[b][y] = make([][]float32, w)
			for x := range batch[b][y] {
				off := ((b*h+y)*w + x) * ch
				batch[b][y][x] = t.Data[off : off+ch : off+ch]
			}
		}
	}

	return batch
}

// Preprocess 이미지를 모델 입력 텐서 [1, 224, 224, 3]로 변환
// RGB 채널 선택, 최근접 이웃 리사이징, [0, 1] 범위로 정규화, 배치 차원 추가
func Preprocess(img image.Image) *Tensor {
	h, w, ch := constants.ImageHeight, constants.ImageWidth, constants.ImageChannels

	bounds := img.Bounds()
	srcH, srcW := bounds.Dy(), bounds.Dx()

	data := make([]float32, h*w*ch)
	for y := 0; y < h; y++ {
		// 픽셀 중심 보정 없이 floor(y*srcH/h)
		sy := min(y*srcH/h, srcH-1)
		for x := 0; x < w; x++ {
			sx := min(x*srcW/w, srcW-1)

			px := nrgba(img.At(bounds.Min.X+sx, bounds.Min.Y+sy))
			off := (y*w + x) * ch
			data[off+0] = float32(px.R) / 255
			data[off+1] = float32(px.G) / 255
			data[off+2] = float32(px.B) / 255
		}
	}

	return &Tensor{
		Shape: []int{1, h, w, ch},
		Data:  data,
	}
}

// nrgba 알파가 곱해지지 않은 색상값, 완전히 투명한 픽셀은 검정색
func nrgba(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(color.RGBA64Model.Convert(c)).(color.NRGBA)
}
