// internal/browser/attributes.go
package browser

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/sedriver/internal/driver"
)

// Attribute resolves the names reachable through driver.Driver.Forward.
// They follow the snake_case vocabulary of WebDriver clients so scripts
// written against one read naturally against the other.
func (s *Session) Attribute(name string) (driver.Attribute, error) {
	switch name {
	case "session_id":
		return driver.ValueAttribute(s.id), nil
	case "title":
		return driver.MethodAttribute(func(ctx context.Context, _ ...interface{}) (interface{}, error) {
			return s.Title(ctx)
		}), nil
	case "current_url":
		return driver.MethodAttribute(func(ctx context.Context, _ ...interface{}) (interface{}, error) {
			return s.CurrentURL(ctx)
		}), nil
	case "page_source":
		return driver.MethodAttribute(func(ctx context.Context, _ ...interface{}) (interface{}, error) {
			return s.PageSource(ctx)
		}), nil
	case "get_screenshot_as_png":
		return driver.MethodAttribute(func(ctx context.Context, _ ...interface{}) (interface{}, error) {
			return s.Screenshot(ctx)
		}), nil
	case "execute_script":
		return driver.MethodAttribute(func(ctx context.Context, args ...interface{}) (interface{}, error) {
			script, err := stringArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			var res interface{}
			if err := s.ExecuteScript(ctx, script, &res); err != nil {
				return nil, err
			}
			return res, nil
		}), nil
	case "find_element_text":
		return driver.MethodAttribute(func(ctx context.Context, args ...interface{}) (interface{}, error) {
			sel, err := stringArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			return s.Text(ctx, sel)
		}), nil
	case "get":
		return driver.ChainAttribute(func(ctx context.Context, args ...interface{}) (interface{}, error) {
			url, err := stringArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			return s, s.Navigate(ctx, url)
		}), nil
	case "back":
		return driver.ChainAttribute(func(ctx context.Context, _ ...interface{}) (interface{}, error) {
			return s, s.Back(ctx)
		}), nil
	case "forward":
		return driver.ChainAttribute(func(ctx context.Context, _ ...interface{}) (interface{}, error) {
			return s, s.Forward(ctx)
		}), nil
	case "refresh":
		return driver.ChainAttribute(func(ctx context.Context, _ ...interface{}) (interface{}, error) {
			return s, s.Refresh(ctx)
		}), nil
	case "switch_to_frame":
		return driver.ChainAttribute(func(ctx context.Context, args ...interface{}) (interface{}, error) {
			sel, err := stringArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			return s, s.SwitchToFrame(ctx, sel)
		}), nil
	case "switch_to_default_content":
		return driver.ChainAttribute(func(ctx context.Context, _ ...interface{}) (interface{}, error) {
			return s, s.SwitchToDefaultContent(ctx)
		}), nil
	case "set_window_size":
		return driver.ChainAttribute(func(ctx context.Context, args ...interface{}) (interface{}, error) {
			w, err := intArg(name, args, 0)
			if err != nil {
				return nil, err
			}
			h, err := intArg(name, args, 1)
			if err != nil {
				return nil, err
			}
			return s, s.SetWindowSize(ctx, w, h)
		}), nil
	}
	return driver.Attribute{}, fmt.Errorf("session %s does not provide %q", s.id, name)
}

func stringArg(method string, args []interface{}, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%w: %s expects argument %d", driver.ErrInvalidArgument, method, i)
	}
	v, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("%w: %s argument %d must be a string, got %T", driver.ErrInvalidArgument, method, i, args[i])
	}
	return v, nil
}

func intArg(method string, args []interface{}, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("%w: %s expects argument %d", driver.ErrInvalidArgument, method, i)
	}
	switch v := args[i].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	}
	return 0, fmt.Errorf("%w: %s argument %d must be a number, got %T", driver.ErrInvalidArgument, method, i, args[i])
}
