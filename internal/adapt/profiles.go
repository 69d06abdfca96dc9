// Package adapt は配信先サイトごとの記事トーン適合（リライト）機能を提供する。
// サイトごとのトーンプロファイルと、テキスト生成APIによるリライトエンジンを含む。
package adapt

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var profilesYAML []byte

// Profiles はサイト表示名からトーン・文体ガイドラインへのマッピング。
// 静的設定としてビルド時に埋め込まれ、リクエスト時には読み取り専用で使用する。
type Profiles struct {
	guidelines map[string]string
}

// LoadProfiles は埋め込みYAMLからサイトプロファイルを読み込む。
func LoadProfiles() (*Profiles, error) {
	return parseProfiles(profilesYAML)
}

// parseProfiles はYAMLバイト列からプロファイルをパースする。
func parseProfiles(data []byte) (*Profiles, error) {
	var raw struct {
		Sites map[string]string `yaml:"sites"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("サイトプロファイルのパースに失敗しました: %w", err)
	}
	if len(raw.Sites) == 0 {
		return nil, fmt.Errorf("サイトプロファイルが空です")
	}

	return &Profiles{guidelines: raw.Sites}, nil
}

// Guideline はサイトのトーンガイドラインを返す。
// プロファイルが未定義のサイトには空文字列を返す（ガイドラインなしでリライトされる）。
func (p *Profiles) Guideline(site string) string {
	return p.guidelines[site]
}

// Known はサイトのプロファイルが定義されているかを返す。
func (p *Profiles) Known(site string) bool {
	_, ok := p.guidelines[site]
	return ok
}
