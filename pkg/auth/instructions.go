package auth

import (
	"fmt"
	"io"
	"strings"
)

// ShowTokenGuide writes step-by-step instructions for obtaining a page id
// and a page access token
func ShowTokenGuide(w io.Writer) {
	line := strings.Repeat("=", 80)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "📚 FACEBOOK PAGE ACCESS TOKEN GUIDE")
	fmt.Fprintln(w, line)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "This tool reads page insights through the Facebook Graph API.")
	fmt.Fprintln(w, "It needs the numeric id of your page and a page access token.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🆔 STEP 1: Find your page id")
	fmt.Fprintln(w, "   - Open your page on facebook.com")
	fmt.Fprintln(w, "   - Go to 'About' → 'Page transparency'")
	fmt.Fprintln(w, "   - Copy the numeric 'Page ID'")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🔧 STEP 2: Open the Graph API Explorer")
	fmt.Fprintln(w, "   - Go to https://developers.facebook.com/tools/explorer")
	fmt.Fprintln(w, "   - Select your Meta app in the 'Meta App' menu")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "🔑 STEP 3: Request the permissions")
	fmt.Fprintln(w, "   ┌──────────────────────────┬────────────────────────────────────┐")
	fmt.Fprintln(w, "   │ Permission               │ Needed for                         │")
	fmt.Fprintln(w, "   ├──────────────────────────┼────────────────────────────────────┤")
	fmt.Fprintln(w, "   │ pages_show_list          │ selecting the page                 │")
	fmt.Fprintln(w, "   │ pages_read_engagement    │ reading posts                      │")
	fmt.Fprintln(w, "   │ read_insights            │ page and post insights             │")
	fmt.Fprintln(w, "   └──────────────────────────┴────────────────────────────────────┘")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "📄 STEP 4: Get a page token")
	fmt.Fprintln(w, "   - Click 'Generate Access Token' and approve the dialog")
	fmt.Fprintln(w, "   - In 'User or Page', pick your page")
	fmt.Fprintln(w, "   - Copy the token shown in the 'Access Token' field")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "💡 TIPS:")
	fmt.Fprintln(w, "   • Explorer tokens expire after about an hour")
	fmt.Fprintln(w, "   • Run 'fbinsights auth exchange' with your app id and secret")
	fmt.Fprintln(w, "     to trade it for a long-lived token (about 60 days)")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "⚠️  SECURITY WARNING:")
	fmt.Fprintln(w, "   • A page token can act on behalf of your page")
	fmt.Fprintln(w, "   • NEVER commit it to a repository or share it")
	fmt.Fprintln(w, "   • Store it with 'fbinsights auth login', which encrypts it")
	fmt.Fprintln(w)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w)
}

// ShowQuickTokenGuide writes a condensed version for experienced users
func ShowQuickTokenGuide(w io.Writer) {
	fmt.Fprintln(w, "\n🔑 Quick Guide: developers.facebook.com/tools/explorer → your app → read_insights + pages_read_engagement → page token")
	fmt.Fprintln(w, "   Need: page id and page access token")
	fmt.Fprintln(w, "   Run 'fbinsights auth guide' for detailed instructions")
}
