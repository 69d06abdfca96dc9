// Package publish はリライト済み記事の外部ワークスペースへのページ作成機能を提供する。
// 本文のチャンク分割、ページ作成APIクライアント、失敗を伝播させないシンクラッパーを含む。
package publish

// maxChunkLen はページ本文ブロック1つあたりの最大文字数。
// ページ作成API側のブロックサイズ上限に合わせている。
const maxChunkLen = 2000

// splitChunks は本文をmaxLen以下のチャンク列に分割する。
// 後続チャンクが残る場合は仮の終端から後方に改行・空白を探し、
// 見つかればその直後まで終端を戻すことで単語の途中での分割を避ける。
// 全チャンクを順に連結すると必ず元の文字列に一致する。
func splitChunks(content string, maxLen int) []string {
	if content == "" {
		return nil
	}

	var chunks []string
	offset := 0
	for offset < len(content) {
		end := offset + maxLen
		if end >= len(content) {
			chunks = append(chunks, content[offset:])
			break
		}

		// 後続チャンクが残るため、終端から後方へ境界を探す
		boundary := -1
		for i := end - 1; i > offset; i-- {
			if content[i] == '\n' || content[i] == ' ' {
				boundary = i
				break
			}
		}
		if boundary > offset {
			end = boundary + 1
		}

		chunks = append(chunks, content[offset:end])
		offset = end
	}

	return chunks
}
