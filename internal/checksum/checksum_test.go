package checksum

import (
	"testing"
)

func TestGenerateContentHash(t *testing.T) {
	gen := NewGenerator()

	url := "https://www.shbb.gov.cn/bzglyj202404/9601.jhtml"
	title := "关于印发通知"
	text := "正文内容"

	hash1 := gen.GenerateContentHash(url, title, text)
	hash2 := gen.GenerateContentHash(url, title, text)

	if hash1 != hash2 {
		t.Errorf("Hash not deterministic: %s != %s", hash1, hash2)
	}

	if len(hash1) != 64 {
		t.Errorf("Hash wrong length: %d, expected 64", len(hash1))
	}

	hash3 := gen.GenerateContentHash(url, "另一个标题", text)
	if hash1 == hash3 {
		t.Errorf("Hash should change when title changes")
	}
}

func TestVerifyContentHash(t *testing.T) {
	gen := NewGenerator()

	hash := gen.GenerateContentHash("u", "t", "x")

	if !gen.VerifyContentHash(hash, "u", "t", "x") {
		t.Errorf("VerifyContentHash failed for correct data")
	}
	if gen.VerifyContentHash(hash, "u", "other", "x") {
		t.Errorf("VerifyContentHash should fail for wrong title")
	}
}

func TestGenerateExportHashIsOrderSensitive(t *testing.T) {
	gen := NewGenerator()
	a := Item{URL: "a", Title: "甲", Text: "1"}
	b := Item{URL: "b", Title: "乙", Text: "2"}

	if gen.GenerateExportHash([]Item{a, b}) != gen.GenerateExportHash([]Item{a, b}) {
		t.Errorf("export hash not deterministic")
	}
	if gen.GenerateExportHash([]Item{a, b}) == gen.GenerateExportHash([]Item{b, a}) {
		t.Errorf("export hash should depend on order")
	}
}
