package auth

import (
	"errors"
	"strings"
	"testing"
)

const loginPageTemplate = `<!DOCTYPE html>
<html>
<head>
<script>
    window.kcContext = (() => {
        /* Generated by the theme, do not edit. */
        const out = {
            "url": {
                "loginAction": "LOGIN_ACTION",
                "resourcesPath": "/auth/resources/theme",
            },
            "realm": {
                "name": "SpringBoot",
                "registrationAllowed": false,
            },
            "pageId": "login.ftl",
            "locale": { "currentLanguageTag": "ru", },
        };
        return out;
    })();
</script>
</head>
<body><div id="root"></div></body>
</html>`

const testLoginAction = "https://exv.portal.alabuga.ru/auth/realms/SpringBoot/login-actions/authenticate?session_code=sc-1&execution=exec-2&client_id=ExonReactApp&tab_id=tab-3"

func loginPage(action string) string {
	return strings.Replace(loginPageTemplate, "LOGIN_ACTION", action, 1)
}

func TestParseLoginContext(t *testing.T) {
	lc, err := ParseLoginContext(loginPage(testLoginAction))
	if err != nil {
		t.Fatalf("ParseLoginContext() error = %v", err)
	}

	if lc.SessionCode != "sc-1" || lc.Execution != "exec-2" || lc.ClientID != "ExonReactApp" || lc.TabID != "tab-3" {
		t.Errorf("unexpected context: %+v", lc)
	}
	if got := lc.ActionURL.String(); got != "https://exv.portal.alabuga.ru/auth/realms/SpringBoot/login-actions/authenticate" {
		t.Errorf("ActionURL = %q, want path without query", got)
	}
	if lc.ActionURL.RawQuery != "" {
		t.Errorf("ActionURL kept its query: %q", lc.ActionURL.RawQuery)
	}
}

func TestLoginContext_SubmitURL(t *testing.T) {
	lc, err := ParseLoginContext(loginPage(testLoginAction + "&extra=drop"))
	if err != nil {
		t.Fatalf("ParseLoginContext() error = %v", err)
	}

	want := "https://exv.portal.alabuga.ru/auth/realms/SpringBoot/login-actions/authenticate?client_id=ExonReactApp&execution=exec-2&session_code=sc-1&tab_id=tab-3"
	if got := lc.SubmitURL(); got != want {
		t.Errorf("SubmitURL() = %q, want %q", got, want)
	}
}

func TestParseLoginContext_Errors(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"NoScript", "<html><body>maintenance</body></html>"},
		{"NoOutObject", `<script>window.kcContext = (() => { return {}; })();</script>`},
		{"InvalidObject", `<script>window.kcContext = (() => { const out = { "url": [ }; return out; })();</script>`},
		{"NoLoginAction", `<script>window.kcContext = (() => { const out = { "url": { "resourcesPath": "/r" } }; return out; })();</script>`},
		{"RelativeLoginAction", loginPage("/auth/login-actions/authenticate?session_code=x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLoginContext(tt.html)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
		})
	}
}

func TestParseLoginContext_UnquotedKeys(t *testing.T) {
	html := `<script>window.kcContext = (() => {
		const out = {
			url: { loginAction: "https://portal.example.com/auth/a?session_code=s&execution=e&client_id=c&tab_id=t", },
		};
		return out;
	})();</script>`

	lc, err := ParseLoginContext(html)
	if err != nil {
		t.Fatalf("ParseLoginContext() error = %v", err)
	}
	if lc.TabID != "t" {
		t.Errorf("TabID = %q, want t", lc.TabID)
	}
}

func TestRelaxedObjectLiteralToJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"TrailingCommaObject", `{"a": 1,}`, `{"a": 1}`},
		{"TrailingCommaArray", `{"a": [1, 2, ]}`, `{"a": [1, 2]}`},
		{"NestedTrailing", "{\"a\": {\"b\": 1,\n},\n}", `{"a": {"b": 1}}`},
		{"BlockComment", `{/* note */"a": 1}`, `{"a": 1}`},
		{"MultilineComment", "{/* line1\nline2 */\"a\": 1}", `{"a": 1}`},
		{"Untouched", `{"a": "x, y"}`, `{"a": "x, y"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RelaxedObjectLiteralToJSON(tt.in); got != tt.want {
				t.Errorf("RelaxedObjectLiteralToJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}
