package pairing

import (
    "net/url"

    qrcode "github.com/skip2/go-qrcode"
)

// Deep links are pure routing hints: they tell the phone which screen to
// open, never who the user is. Identity on the mobile side comes from that
// device's own authenticated session, so a leaked or reused QR code grants
// nothing.

// ProfileDeepLink builds the deep link shown while linking a card from the
// profile screen: <base>/profile?mobileLink=true.
func ProfileDeepLink(baseURL string) (string, error) {
    u, err := url.Parse(baseURL)
    if err != nil {
        return "", err
    }
    u = u.JoinPath("profile")
    q := u.Query()
    q.Set("mobileLink", "true")
    u.RawQuery = q.Encode()
    return u.String(), nil
}

// RegistrationDeepLink builds the deep link used during onboarding:
// <base>/register?mobile=true&firstName=...&lastName=.... The names are
// display prefill only; the registration flow itself is owned by the web
// app.
func RegistrationDeepLink(baseURL, firstName, lastName string) (string, error) {
    u, err := url.Parse(baseURL)
    if err != nil {
        return "", err
    }
    u = u.JoinPath("register")
    q := u.Query()
    q.Set("mobile", "true")
    q.Set("firstName", firstName)
    q.Set("lastName", lastName)
    u.RawQuery = q.Encode()
    return u.String(), nil
}

// QRCodePNG renders a deep link as a PNG image of size x size pixels with
// medium error correction.
func QRCodePNG(deepLink string, size int) ([]byte, error) {
    return qrcode.Encode(deepLink, qrcode.Medium, size)
}
