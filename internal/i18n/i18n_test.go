package i18n

import "testing"

func TestLabelsFrench(t *testing.T) {
	t.Parallel()

	labels := New("fr").Labels()
	if labels.Generate != "Générer un résumé IA" {
		t.Fatalf("unexpected generate label %q", labels.Generate)
	}
	if labels.Title != "Résumé IA" {
		t.Fatalf("unexpected title label %q", labels.Title)
	}
}

func TestLabelsRegionalDirectory(t *testing.T) {
	t.Parallel()

	if got := New("zh-CN").T(MsgTitle); got == MsgTitle || got == "" {
		t.Fatalf("expected a chinese title, got %q", got)
	}
}

func TestMissingLocalePassesThrough(t *testing.T) {
	t.Parallel()

	labels := New("en-US").Labels()
	if labels.Generate != MsgGenerate || labels.Loading != MsgLoading || labels.Title != MsgTitle {
		t.Fatalf("expected english msgids, got %+v", labels)
	}

	var nilCatalog *Catalog
	if got := nilCatalog.T(MsgTitle); got != MsgTitle {
		t.Fatalf("nil catalog must pass msgid through, got %q", got)
	}
}

func TestGettextName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"zh-CN":       "zh_CN",
		"fr":          "fr",
		"":            "en",
		"de_DE.UTF-8": "de_DE",
	}
	for in, want := range cases {
		if got := gettextName(in); got != want {
			t.Errorf("gettextName(%q) = %q, want %q", in, got, want)
		}
	}
}
