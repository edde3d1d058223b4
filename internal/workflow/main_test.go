package workflow

import (
	"os"
	"testing"

	"github.com/tomyan/searchflow/internal/testutil"
)

// Test Chrome instance - each package gets its own
const testChromePort = 9311

var chromeInstance *testutil.ChromeInstance

func TestMain(m *testing.M) {
	chromeInstance = testutil.StartChromeForMain(testChromePort)

	code := m.Run()

	chromeInstance.Stop()
	os.Exit(code)
}
