/*
 * @module service/utils/data_converter
 * @description 文本编码转换工具，负责上传文件的字符集识别与UTF-8转码
 * @architecture 工具函数模式，无状态转换方法集合
 * @documentReference dev_docs/requirements.md
 * @stateFlow 原始字节 -> 字符集判定 -> UTF-8字节
 * @rules
 *   - 转码失败必须显式报错，不输出半转换结果
 *   - GBK/GB2312统一走GB18030超集解码
 *   - 仅文本类文件参与转码，二进制文件原样透传
 * @dependencies
 *   - golang.org/x/text: 字符集解码
 * @refs
 *   - api/controllers/source_controller.go: 文件上传接口
 */

package utils

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// 参与转码的文本类扩展名，其余文件在上传时原样透传
var textExtensions = map[string]bool{
	".csv":  true,
	".tsv":  true,
	".json": true,
	".txt":  true,
	".md":   true,
	".xml":  true,
	".yaml": true,
	".yml":  true,
}

// DataConverter 文本编码转换器
type DataConverter struct{}

// NewDataConverter 创建文本编码转换器实例
func NewDataConverter() *DataConverter {
	return &DataConverter{}
}

// ShouldTranscode 判断文件是否属于需要转码的文本类型
func (dc *DataConverter) ShouldTranscode(filename string) bool {
	return textExtensions[strings.ToLower(filepath.Ext(filename))]
}

// DecodeToUTF8 按指定字符集将字节序列解码为UTF-8。
// 字符集为空或utf-8时仅剥离BOM后透传。
func (dc *DataConverter) DecodeToUTF8(data []byte, charset string) ([]byte, error) {
	enc, err := decoderFor(charset)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		stripped := bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(stripped) {
			return nil, fmt.Errorf("内容不是有效的UTF-8文本")
		}
		return stripped, nil
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("字符集 %s 解码失败: %w", charset, err)
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return nil, fmt.Errorf("内容与声明的字符集 %s 不匹配", charset)
	}
	return decoded, nil
}

// EnsureUTF8 自动识别文本编码并转为UTF-8，返回转换结果与判定的字符集。
// 已是UTF-8的内容仅剥离BOM；否则按GB18030（GBK/GB2312超集）解码。
func (dc *DataConverter) EnsureUTF8(data []byte) ([]byte, string, error) {
	stripped := bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(stripped) {
		return stripped, "utf-8", nil
	}

	decoded, err := dc.DecodeToUTF8(data, "gb18030")
	if err != nil {
		return nil, "", fmt.Errorf("无法识别文本编码: %w", err)
	}
	return decoded, "gb18030", nil
}

func decoderFor(charset string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "gbk", "gb2312":
		return simplifiedchinese.GBK, nil
	case "gb18030":
		return simplifiedchinese.GB18030, nil
	default:
		return nil, fmt.Errorf("不支持的字符集: %s", charset)
	}
}
