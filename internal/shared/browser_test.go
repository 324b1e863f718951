package shared

import "testing"

func TestBrowserCommand(t *testing.T) {
	const url = "http://localhost:8000/api/v1/users/auth/google"

	tc := []struct {
		rt   string
		want string
	}{
		{rt: "darwin", want: "open"},
		{rt: "linux", want: "xdg-open"},
		{rt: "windows", want: "rundll32"},
	}

	for _, tt := range tc {
		t.Run(tt.rt, func(t *testing.T) {
			name, args, err := browserCommand(tt.rt, url)
			if err != nil {
				t.Fatalf("browserCommand() error = %v", err)
			}
			if name != tt.want {
				t.Errorf("browserCommand() name = %v, want %v", name, tt.want)
			}
			if args[len(args)-1] != url {
				t.Errorf("url should be the last argument, got %v", args)
			}
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		orig := getRuntime
		getRuntime = func() string { return "plan9" }
		defer func() { getRuntime = orig }()

		if err := OpenBrowser(url); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}
