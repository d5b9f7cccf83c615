package security

import (
	"strings"
	"testing"
)

// TestSanitize_AllowedTags は許可タグが正しく通過することを検証する。
func TestSanitize_AllowedTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		// want に含まれるべき部分文字列
		wantContains []string
	}{
		{
			name:         "pタグが許可される",
			input:        "<p>Первая глава</p>",
			wantContains: []string{"<p>Первая глава</p>"},
		},
		{
			name:         "h2タグが許可される",
			input:        "<h2>Глава 1</h2>",
			wantContains: []string{"<h2>Глава 1</h2>"},
		},
		{
			name:         "brタグが許可される",
			input:        "строка1<br>строка2",
			wantContains: []string{"<br>", "строка1", "строка2"},
		},
		{
			name:         "aタグが許可される",
			input:        `<a href="https://example.com">ссылка</a>`,
			wantContains: []string{"<a", "href", "https://example.com", "ссылка", "</a>"},
		},
		{
			name:         "ulタグとliタグが許可される",
			input:        "<ul><li>один</li><li>два</li></ul>",
			wantContains: []string{"<ul>", "<li>", "один", "два", "</li>", "</ul>"},
		},
		{
			name:         "blockquoteタグが許可される",
			input:        "<blockquote>цитата</blockquote>",
			wantContains: []string{"<blockquote>цитата</blockquote>"},
		},
		{
			name:         "strongタグとemタグが許可される",
			input:        "<strong>жирный</strong> и <em>курсив</em>",
			wantContains: []string{"<strong>жирный</strong>", "<em>курсив</em>"},
		},
		{
			name:         "bタグとiタグが許可される",
			input:        "<b>жирный</b> и <i>курсив</i>",
			wantContains: []string{"<b>жирный</b>", "<i>курсив</i>"},
		},
		{
			name:         "imgタグがhttps srcで許可される",
			input:        `<img src="https://example.com/cover.png" alt="обложка">`,
			wantContains: []string{"<img", "src", "https://example.com/cover.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitize_ForbiddenTags は禁止タグが除去されることを検証する。
func TestSanitize_ForbiddenTags(t *testing.T) {
	sanitizer := NewContentSanitizer()

	tests := []struct {
		name         string
		input        string
		wantAbsent   []string
		wantContains []string
	}{
		{
			name:         "scriptタグが除去される",
			input:        `<p>текст</p><script>alert('xss')</script><p>ещё</p>`,
			wantAbsent:   []string{"<script", "</script>", "alert"},
			wantContains: []string{"текст", "ещё"},
		},
		{
			name:         "iframeタグが除去される",
			input:        `<p>текст</p><iframe src="https://evil.com"></iframe>`,
			wantAbsent:   []string{"<iframe", "</iframe>", "evil.com"},
			wantContains: []string{"текст"},
		},
		{
			name:         "styleタグが除去される",
			input:        `<p>текст</p><style>body{display:none}</style>`,
			wantAbsent:   []string{"<style", "</style>", "display:none"},
			wantContains: []string{"текст"},
		},
		{
			name:         "onclickイベント属性が除去される",
			input:        `<p onclick="alert('xss')">текст</p>`,
			wantAbsent:   []string{"onclick", "alert"},
			wantContains: []string{"<p>текст</p>"},
		},
		{
			name:       "http srcのimgタグが除去される",
			input:      `<img src="http://example.com/x.png">`,
			wantAbsent: []string{"<img", "http://example.com"},
		},
		{
			name:       "javascript hrefのaタグが無害化される",
			input:      `<a href="javascript:alert(1)">клик</a>`,
			wantAbsent: []string{"javascript:", "href"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizer.Sanitize(tt.input)
			for _, absent := range tt.wantAbsent {
				if strings.Contains(got, absent) {
					t.Errorf("Sanitize(%q) = %q, expected NOT to contain %q", tt.input, got, absent)
				}
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize(%q) = %q, expected to contain %q", tt.input, got, want)
				}
			}
		})
	}
}

// TestSanitize_LinkAttributes はaタグにtarget="_blank"と
// rel="noopener noreferrer"が付与されることを検証する。
func TestSanitize_LinkAttributes(t *testing.T) {
	sanitizer := NewContentSanitizer()

	got := sanitizer.Sanitize(`<a href="https://example.com">ссылка</a>`)

	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("Sanitize result %q does not contain target=_blank", got)
	}
	if !strings.Contains(got, "noopener") || !strings.Contains(got, "noreferrer") {
		t.Errorf("Sanitize result %q does not contain rel noopener noreferrer", got)
	}
}

// TestSanitize_EmptyInput は空文字列に空文字列を返すことを検証する。
func TestSanitize_EmptyInput(t *testing.T) {
	sanitizer := NewContentSanitizer()

	if got := sanitizer.Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, want empty string", got)
	}
}

// TestSanitize_PlainText はタグを含まないテキストがそのまま返ることを検証する。
func TestSanitize_PlainText(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := "Обычный текст главы без разметки."
	if got := sanitizer.Sanitize(input); got != input {
		t.Errorf("Sanitize(%q) = %q, want unchanged", input, got)
	}
}

// TestSanitize_Idempotent は同一入力に対して常に同一出力を返すことを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewContentSanitizer()

	input := `<h2>Глава</h2><p>текст <strong>жирный</strong></p><script>alert(1)</script>`
	first := sanitizer.Sanitize(input)
	second := sanitizer.Sanitize(first)

	if first != second {
		t.Errorf("Sanitize is not idempotent: first = %q, second = %q", first, second)
	}
}

// TestNewContentSanitizer_ImplementsInterface はインターフェース実装を検証する。
func TestNewContentSanitizer_ImplementsInterface(t *testing.T) {
	var _ ContentSanitizerService = NewContentSanitizer()
}
