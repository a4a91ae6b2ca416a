package constants

const (
	DefaultModelPath string = "tm-my-image-model"
	ModelConfigFile  string = "config.yaml"

	ImageHeight   int = 224
	ImageWidth    int = 224
	ImageChannels int = 3

	DefaultTopK int = 5

	PreviewSize int = 150
)

// ClassLabels 모델 출력 순서와 동일한 해충 분류 라벨
var ClassLabels = []string{
	"Armyworms",
	"BrownMarmoratedStinkBugs",
	"CabbageLoopers",
	"CitrusCanker",
	"ColoradoPotatoBeetles",
	"CornBorers",
	"CornEarworms",
	"FallArmyworms",
	"FruitFlies",
	"Thrips",
	"Tomato_Hornworms",
}
