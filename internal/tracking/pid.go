package tracking

// PIDGains holds proportional, integral and derivative gains for one axis.
type PIDGains struct {
	Kp float64 `json:"kp"`
	Ki float64 `json:"ki"`
	Kd float64 `json:"kd"`
}

// PIDController turns a scalar error into a correction. The output is not
// clamped; callers bound it.
type PIDController struct {
	Kp, Ki, Kd float64

	integral      float64
	previousError float64
}

// NewPIDController creates a controller with zeroed state.
func NewPIDController(g PIDGains) *PIDController {
	return &PIDController{Kp: g.Kp, Ki: g.Ki, Kd: g.Kd}
}

// Compute advances the controller by dt seconds with the given error and
// returns kp*e + ki*integral + kd*derivative. A non-positive dt is a
// zero-length step: the integral is not advanced and the derivative is zero.
func (p *PIDController) Compute(err, dt float64) float64 {
	var derivative float64
	if dt > 0 {
		p.integral += err * dt
		derivative = (err - p.previousError) / dt
	}
	p.previousError = err
	return p.Kp*err + p.Ki*p.integral + p.Kd*derivative
}

// Integral returns the accumulated error*dt.
func (p *PIDController) Integral() float64 { return p.integral }

// Reset clears the accumulated state, keeping the gains.
func (p *PIDController) Reset() {
	p.integral = 0
	p.previousError = 0
}
