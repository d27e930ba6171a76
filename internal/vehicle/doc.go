// Package vehicle provides the race car motion models.
//
// The package defines the value types shared by every model ([State],
// [Input], [Param]) and two implementations of the [Dynamics] contract:
//
//   - [PointMass]: open-loop kinematic integration of the commanded
//     acceleration, yaw derived from the velocity vector
//   - [DynamicBicycle]: planar bicycle with slip-angle tire forces,
//     aerodynamic loads and a smooth kinematic blend at low speed
//
// Models are stateless apart from the [Param] handle they hold; callers own
// the State/Input records across ticks. Use [Model.UpdateState] rather than
// calling a variant directly: it performs the input clamping and NaN/Inf
// validation both variants rely on.
package vehicle
