// Package sample 샘플 디렉토리에서 카테고리, 라벨 길이, 이미지 크기를 추출
package sample

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path"

	"github.com/harrison-roh/image-classification-wizard/wizardapp/category"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/constants"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Info 샘플 디렉토리 분석 결과
type Info struct {
	Category    category.Tag `json:"category"`
	LabelLength int          `json:"labelLength"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
}

// Probe dir 의 샘플로 카테고리를 추론하고 첫 번째 이미지의 크기를 읽는다
func Probe(dir, delim string) (Info, error) {
	res, err := category.Infer(dir, delim)
	if err != nil {
		return Info{}, err
	}

	w, h, err := firstImageSize(dir)
	if err != nil {
		return Info{}, err
	}

	return Info{
		Category:    res.Tag,
		LabelLength: res.LabelLength,
		Width:       w,
		Height:      h,
	}, nil
}

// ImageSize 이미지 헤더에서 크기를 읽는다
func ImageSize(file string) (int, int, error) {
	f, err := os.Open(file)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("Fail to decode image(%s): %w", file, err)
	}

	return cfg.Width, cfg.Height, nil
}

func firstImageSize(dir string) (int, int, error) {
	d, err := os.Open(dir)
	if err != nil {
		return 0, 0, err
	}
	defer d.Close()

	entries, err := d.ReadDir(constants.MaxInferSamples)
	if err != nil && err != io.EOF {
		return 0, 0, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if w, h, err := ImageSize(path.Join(dir, entry.Name())); err == nil {
			return w, h, nil
		}
	}

	return 0, 0, fmt.Errorf("No readable image in %s", dir)
}
