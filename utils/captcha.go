package utils

import (
	"github.com/mojocn/base64Captcha"
)

// activeCaptchaStore prefers Redis so answers survive across instances.
func activeCaptchaStore() base64Captcha.Store {
	if rc := GetRedis(); rc != nil {
		return NewRedisCaptchaStore(rc, 0)
	}
	return base64Captcha.DefaultMemStore
}

// GenerateCaptcha creates a digit captcha and returns its id and data URI image.
func GenerateCaptcha() (string, string, error) {
	driver := base64Captcha.NewDriverDigit(40, 120, 5, 0.7, 80)
	c := base64Captcha.NewCaptcha(driver, activeCaptchaStore())
	id, b64, _, err := c.Generate()
	return id, b64, err
}

// VerifyCaptcha checks the answer and consumes the captcha.
func VerifyCaptcha(id, answer string) bool {
	if id == "" || answer == "" {
		return false
	}
	return activeCaptchaStore().Verify(id, answer, true)
}
