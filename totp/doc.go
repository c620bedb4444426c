// Package totp generates and validates time-based one-time-password
// material: enrollment secrets with otpauth provisioning URLs, windowed
// code validation with clock-skew tolerance, and single-use backup codes.
package totp
