/*
 * @module service/transform/script
 * @description Yaegi脚本执行器 - 将用户提交的Go脚本编译为可注册的自定义转换函数,
 *              支持按脚本哈希缓存与语法预校验
 * @architecture 解释器封装 - 脚本体包装为固定签名的Transform入口函数后解释执行
 * @documentReference dev_docs/requirements.md
 * @stateFlow 脚本哈希 -> 查缓存 -> 未命中则包装编译 -> 提取Transform函数 -> 缓存复用
 * @rules 脚本必须实现签名为 func(values, params) ([]interface{}, error) 的函数体;
 *        编译结果按SHA1哈希缓存,相同脚本只编译一次
 * @dependencies github.com/traefik/yaegi/interp, github.com/traefik/yaegi/stdlib
 * @refs service/transform/pipeline.go
 */

package transform

import (
	"crypto/sha1"
	"fmt"
	"sync"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// ScriptExecutor 脚本执行器,编译结果按脚本哈希缓存
type ScriptExecutor struct {
	mu    sync.RWMutex
	cache map[string]*CompiledTransform
}

// CompiledTransform 编译后的脚本,保存可执行的转换函数
type CompiledTransform struct {
	fn       TransformFunc
	compiled time.Time // 编译时间
	hash     string    // 脚本哈希
}

// NewScriptExecutor 创建脚本执行器
func NewScriptExecutor() *ScriptExecutor {
	return &ScriptExecutor{
		cache: make(map[string]*CompiledTransform),
	}
}

// Compile 编译脚本为转换函数（带缓存优化）
func (s *ScriptExecutor) Compile(script string) (TransformFunc, error) {
	// 使用脚本内容的哈希作为缓存key
	hash := fmt.Sprintf("%x", sha1.Sum([]byte(script)))

	// 先查缓存
	s.mu.RLock()
	compiled, ok := s.cache[hash]
	s.mu.RUnlock()

	if !ok {
		// 没有缓存则编译
		var err error
		compiled, err = s.compile(script, hash)
		if err != nil {
			return nil, err
		}

		// 存入缓存
		s.mu.Lock()
		s.cache[hash] = compiled
		s.mu.Unlock()
	}

	return compiled.fn, nil
}

// compile 编译脚本为可执行函数
func (s *ScriptExecutor) compile(script, hash string) (*CompiledTransform, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("加载标准库失败: %w", err)
	}

	_, err := i.Eval(wrapScript(script))
	if err != nil {
		return nil, fmt.Errorf("脚本编译失败: %w", err)
	}

	// 获取 Transform 函数
	v, err := i.Eval("Transform")
	if err != nil {
		return nil, fmt.Errorf("脚本缺少 Transform 函数: %w", err)
	}

	transformFunc, ok := v.Interface().(func([]interface{}, map[string]interface{}) ([]interface{}, error))
	if !ok {
		return nil, fmt.Errorf("Transform 函数签名必须是 func(values []interface{}, params map[string]interface{}) ([]interface{}, error)")
	}

	return &CompiledTransform{
		fn:       transformFunc,
		compiled: time.Now(),
		hash:     hash,
	}, nil
}

// wrapScript 包装脚本：脚本内容作为 Transform 函数的函数体执行
func wrapScript(script string) string {
	return fmt.Sprintf(`
package main

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// 必须提供一个 Transform 函数作为入口
func Transform(values []interface{}, params map[string]interface{}) ([]interface{}, error) {
	// 脚本内容
%s
}
`, script)
}

// Validate 验证脚本语法（快速校验）
func (s *ScriptExecutor) Validate(script string) error {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return fmt.Errorf("加载标准库符号失败: %v", err)
	}

	_, err := i.Compile(wrapScript(script))
	return err
}

// GetCacheStats 获取缓存统计信息
func (s *ScriptExecutor) GetCacheStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]interface{})
	stats["cache_size"] = len(s.cache)

	if len(s.cache) > 0 {
		oldestTime := time.Now()
		newestTime := time.Time{}

		for _, compiled := range s.cache {
			if compiled.compiled.Before(oldestTime) {
				oldestTime = compiled.compiled
			}
			if compiled.compiled.After(newestTime) {
				newestTime = compiled.compiled
			}
		}

		stats["oldest_compiled"] = oldestTime
		stats["newest_compiled"] = newestTime
	}

	return stats
}

// ClearCache 清理缓存
func (s *ScriptExecutor) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*CompiledTransform)
}

// RegisterScript 编译脚本并注册为指定名称的自定义转换
func (t *Transformer) RegisterScript(executor *ScriptExecutor, name, script string) error {
	fn, err := executor.Compile(script)
	if err != nil {
		return err
	}
	t.RegisterTransform(name, fn)
	return nil
}
