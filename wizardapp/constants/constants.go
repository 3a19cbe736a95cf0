package constants

const (
	ProjectsPath string = "./projects"

	ConfigFile   string = "model.yaml"
	DatasetDir   string = "dataset"
	ModelDir     string = "model"
	GraphDir     string = "out/graph"
	DatasetExt   string = "tfrecords"
	GraphExt     string = "pb"
	LearnHost    string = "learnapp:18090"
	ListenAddr   string = ":18080"
	HistoryTable string = "job_tab"

	DefaultLabelDelimiter string = "_"

	// 카테고리 추론에 사용하는 최대 샘플 수
	MaxInferSamples int = 100

	// 컴파일 가능 여부를 판단하는 model 디렉토리의 최소 항목 수
	MinModelRecords int = 3
)
