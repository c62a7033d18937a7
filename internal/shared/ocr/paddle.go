package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// =============================================================================
// PaddleOCR子进程适配器
// 约定：python脚本识别成功后向stdout输出JSON数组，每项含文本、置信度与
// 四点包围框；任何失败以非零退出码结束并将原因写到stderr
// =============================================================================

// Point 像素坐标点
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box 文本行的四点包围框
type Box struct {
	TopLeft     Point `json:"topLeft"`
	TopRight    Point `json:"topRight"`
	BottomRight Point `json:"bottomRight"`
	BottomLeft  Point `json:"bottomLeft"`
}

// Result 单行识别结果
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// ExecError OCR子进程以非零退出码结束
type ExecError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("ocr process failed (exit %d): %s", e.ExitCode, e.Stderr)
}

func (e *ExecError) Unwrap() error { return e.Err }

// ParseError OCR输出无法解析为约定的JSON结构
type ParseError struct {
	Output string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ocr output is not valid json: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Engine OCR引擎接口，任何满足该契约的实现均可互换
type Engine interface {
	Run(ctx context.Context, filePath string) ([]Result, error)
}

// PaddleEngine 基于python3子进程的PaddleOCR实现
type PaddleEngine struct {
	pythonBin  string
	scriptPath string
	lang       string
	timeout    time.Duration
}

// NewPaddleEngine 创建PaddleOCR适配器
func NewPaddleEngine(pythonBin, scriptPath, lang string, timeout time.Duration) *PaddleEngine {
	if pythonBin == "" {
		pythonBin = "python3"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &PaddleEngine{
		pythonBin:  pythonBin,
		scriptPath: scriptPath,
		lang:       lang,
		timeout:    timeout,
	}
}

// Run 对指定文件执行OCR
func (e *PaddleEngine) Run(ctx context.Context, filePath string) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := []string{e.scriptPath, filePath}
	if e.lang != "" {
		args = append(args, "--lang", e.lang)
	}

	cmd := exec.CommandContext(ctx, e.pythonBin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return nil, &ExecError{
			ExitCode: exitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}

	var results []Result
	if err := json.Unmarshal(stdout.Bytes(), &results); err != nil {
		return nil, &ParseError{Output: stdout.String(), Err: err}
	}

	return results, nil
}
