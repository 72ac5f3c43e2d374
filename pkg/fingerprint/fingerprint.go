// Package fingerprint 将用户问题与宠物档案归一化为稳定的缓存键。
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Length 是指纹的十六进制字符长度，截断以节省存储。
const Length = 16

// noProfileSentinel 在请求不携带宠物档案时参与哈希，保证有档案与无档案的问题互不命中。
const noProfileSentinel = "no-profile"

// punctReplacer 去掉问句末尾常见且不影响语义的标点。
var punctReplacer = strings.NewReplacer("?", "", ".", "", ",", "", "!", "")

// Normalize 对原始问题做归一化：小写、去首尾空白、压缩内部空白、去除 ? . , ! 标点。
func Normalize(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	q = punctReplacer.Replace(q)
	// strings.Fields 同时压缩连续空白（含制表符和换行）
	return strings.Join(strings.Fields(q), " ")
}

// Fingerprint 计算问题与档案描述符的内容寻址指纹。
// 相同语义的问法（大小写、首尾空白、末尾标点差异）得到相同指纹。
func Fingerprint(query, profileDescriptor string) string {
	desc := profileDescriptor
	if desc == "" {
		desc = noProfileSentinel
	}
	sum := sha256.Sum256([]byte(Normalize(query) + ":" + desc))
	return hex.EncodeToString(sum[:])[:Length]
}
